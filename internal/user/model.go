package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了匿名访客在数据库中的持久化模型。
type User struct {
	// ID 是用户的主键，服务端生成的UUID，创建后不再变化。
	ID string `gorm:"primarykey;type:varchar(36)"`

	// CookieToken 是客户端出示的不透明高熵凭据，全局唯一。
	// IP恢复路径会改写它（见service.go），改写采用后写者胜。
	CookieToken string `gorm:"uniqueIndex;not null;type:varchar(64)"`

	// RollsMade 记录了用户已经消耗的抽奖次数，单调递增。
	RollsMade int

	// RollsBonuses 记录了用户历史上赢得的全部奖励次数之和，单调递增。
	RollsBonuses int

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Session 定义了用户与IP地址的关联记录。
// 一个用户可以有多条Session（多设备/多网络）；一条Session只属于一个用户。
// IPAddress 是弱的、非权威的恢复键：NAT和移动网络会让多个访客共享IP，
// 由此产生的身份串联是被接受的近似，不做唯一性约束。
type Session struct {
	gorm.Model

	UserID    string `gorm:"index;not null;type:varchar(36)"`
	IPAddress string `gorm:"index;not null"`
}
