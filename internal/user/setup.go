package user

import (
	"fmt"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&User{}, &Session{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	fmt.Println("User数据库表迁移成功。")
	return nil
}

// WarmupCache 从数据库加载所有已知的凭据token，并预热到Redis的Set中
func WarmupCache() error {
	var users []User
	if err := database.DB.Select("cookie_token").Find(&users).Error; err != nil {
		return fmt.Errorf("无法从数据库读取凭据token: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("无现有用户数据，无需预热token缓存。")
		return nil
	}

	tokens := make([]interface{}, len(users))
	for i, u := range users {
		tokens[i] = u.CookieToken
	}

	// 先清空旧缓存再批量写入，保证与数据库一致
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, KnownTokensKey)
	pipe.SAdd(database.Ctx, KnownTokensKey, tokens...)

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热token缓存到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个凭据token到Redis。\n", len(users))
	return nil
}

// PrimeCachedDB 是user模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
