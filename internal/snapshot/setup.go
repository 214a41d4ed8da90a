package snapshot

import (
	"fmt"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
)

// PrimeCachedDB 是snapshot模块的初始化总入口
func PrimeCachedDB() error {
	if err := database.DB.AutoMigrate(&VoteSnapshot{}); err != nil {
		return fmt.Errorf("无法迁移vote_snapshot表: %w", err)
	}
	fmt.Println("VoteSnapshot数据库表迁移成功。")
	return nil
}
