package snapshot

import "time"

// VoteSnapshot 定义了用于绘制趋势图的票数快照。
// 快照序列按RecordedAt排序后，票数在外部数据源正常工作时单调不减；
// 这一点不做强制校验，数据源被视为可信。
type VoteSnapshot struct {
	ID uint `gorm:"primarykey" json:"-"`

	// Votes 是记录时刻的总票数
	Votes int `json:"votes"`

	// RecordedAt 是快照的记录时刻
	RecordedAt time.Time `gorm:"index" json:"recordedAt"`
}
