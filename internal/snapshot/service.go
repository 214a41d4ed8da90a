package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"gorm.io/gorm"
)

// SampleInterval 是相邻两条快照之间的最小间隔。
// 趋势图只需要粗粒度的时间分辨率，节流的目的只是限制存储增长。
const SampleInterval = 10 * time.Minute

// cooldownKey 是Redis中的快照冷却键。
// SETNX加TTL保证多个worker并发触发时最多只有一个会追加快照。
// 这只是尽力而为的防重，数据库中最新快照的时间判定才是权威。
const cooldownKey = "snapshot:cooldown"

// RecordIfDue 在距离上一条快照至少SampleInterval后追加一条新快照。
// 返回是否真的写入了新快照。它绝不能阻塞或延迟票数的返回，
// 调用方应当把它的失败当作日志事件而不是请求失败。
func RecordIfDue(votes int, now time.Time) (bool, error) {
	var last VoteSnapshot
	err := database.DB.Order("recorded_at DESC").First(&last).Error
	if err == nil && now.Sub(last.RecordedAt) < SampleInterval {
		return false, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("无法读取最新快照: %w", err)
	}

	// Redis冷却保护，不健康时直接跳过
	if database.IsRedisHealthy() {
		ok, err := database.RDB.SetNX(database.Ctx, cooldownKey, now.Unix(), SampleInterval).Result()
		if err == nil && !ok {
			return false, nil
		}
		if err != nil {
			fmt.Printf("警告: 快照冷却检查失败，继续写入: %v\n", err)
		}
	}

	newSnapshot := VoteSnapshot{Votes: votes, RecordedAt: now}
	if err := database.DB.Create(&newSnapshot).Error; err != nil {
		return false, fmt.Errorf("无法写入快照: %w", err)
	}
	return true, nil
}

// History 返回全部快照，按RecordedAt升序排列。
func History() ([]VoteSnapshot, error) {
	var snapshots []VoteSnapshot
	if err := database.DB.Order("recorded_at ASC").Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("无法读取快照历史: %w", err)
	}
	return snapshots, nil
}

// Latest 返回最新的一条快照；没有任何快照时返回gorm.ErrRecordNotFound。
func Latest() (*VoteSnapshot, error) {
	var last VoteSnapshot
	if err := database.DB.Order("recorded_at DESC").First(&last).Error; err != nil {
		return nil, err
	}
	return &last, nil
}
