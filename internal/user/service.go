package user

import (
	"errors"
	"fmt"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/SlpAus/vote-slots-backend/pkg/token"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrUserNotFound 表示客户端出示的凭据无法解析到任何用户。
// 它在请求边界被映射为404。
var ErrUserNotFound = errors.New("用户不存在")

// Resolve 是身份解析的总入口。
// 给定客户端出示的凭据token（可为空）和请求IP，返回唯一的用户记录，
// 并保证该用户存在一条对应当前IP的Session。
//
// 解析顺序，先命中者生效：
//  1. token命中已有用户 → 采用该用户，必要时为当前IP补建Session；
//  2. 按IP查找Session → 采用Session的所有者；如果客户端出示了
//     一个未命中的token，则把它改写到该用户上（清除Cookie后的恢复路径，
//     后写者胜）；
//  3. 都未命中 → 创建新用户（新生成的高熵token）和当前IP的Session。
//
// 并发的首次请求可能为同一个新IP创建两个用户，这是被接受的竞争，
// 本层不做IP唯一性约束。
func Resolve(presentedToken string, ip string) (*User, error) {
	if presentedToken != "" {
		var u User
		err := database.DB.Where("cookie_token = ?", presentedToken).First(&u).Error
		if err == nil {
			if err := ensureSession(u.ID, ip); err != nil {
				return nil, err
			}
			return &u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("按token查找用户失败: %w", err)
		}

		// token未命中：尝试按IP恢复身份，并把出示的token改写到找到的用户上
		owner, err := findByIP(ip)
		if err == nil {
			if err := rewriteToken(owner, presentedToken); err != nil {
				return nil, err
			}
			return owner, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return createUser(ip)
	}

	// 无token：只能按IP恢复
	owner, err := findByIP(ip)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return createUser(ip)
}

// FindByToken 按凭据token查找用户。
// 在Redis健康时先用已知token集合做快速判定，未知token直接返回ErrUserNotFound。
func FindByToken(presentedToken string) (*User, error) {
	if presentedToken == "" {
		return nil, ErrUserNotFound
	}

	if database.IsRedisHealthy() {
		known, err := database.RDB.SIsMember(database.Ctx, KnownTokensKey, presentedToken).Result()
		if err == nil && !known {
			return nil, ErrUserNotFound
		}
		// Redis出错时退回数据库查询
	}

	var u User
	err := database.DB.Where("cookie_token = ?", presentedToken).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("按token查找用户失败: %w", err)
	}
	return &u, nil
}

// GetByID 按主键重新读取用户。
func GetByID(id string) (*User, error) {
	var u User
	err := database.DB.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("按ID查找用户失败: %w", err)
	}
	return &u, nil
}

// HasSessionForIP 检查用户是否拥有对应IP的Session。
func HasSessionForIP(userID string, ip string) (bool, error) {
	var count int64
	err := database.DB.Model(&Session{}).
		Where("user_id = ? AND ip_address = ?", userID, ip).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询Session失败: %w", err)
	}
	return count > 0, nil
}

// findByIP 按IP查找Session并返回其所有者。
func findByIP(ip string) (*User, error) {
	var sess Session
	err := database.DB.Where("ip_address = ?", ip).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("按IP查找Session失败: %w", err)
	}

	var owner User
	err = database.DB.First(&owner, "id = ?", sess.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Session指向的用户已不存在，视为未命中
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查找Session所有者失败: %w", err)
	}
	return &owner, nil
}

// ensureSession 保证(userID, ip)的Session存在，不存在则创建。
// 重复调用不会产生重复记录。
func ensureSession(userID string, ip string) error {
	var count int64
	err := database.DB.Model(&Session{}).
		Where("user_id = ? AND ip_address = ?", userID, ip).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("查询Session失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	newSession := Session{UserID: userID, IPAddress: ip}
	if err := database.DB.Create(&newSession).Error; err != nil {
		return fmt.Errorf("无法创建Session: %w", err)
	}
	return nil
}

// rewriteToken 将客户端出示的token改写到找到的用户上（后写者胜）。
func rewriteToken(u *User, newToken string) error {
	oldToken := u.CookieToken
	err := database.DB.Model(&User{}).
		Where("id = ?", u.ID).
		Update("cookie_token", newToken).Error
	if err != nil {
		return fmt.Errorf("改写用户token失败: %w", err)
	}
	u.CookieToken = newToken

	// 同步已知token缓存，失败只影响快速判定
	if database.IsRedisHealthy() {
		pipe := database.RDB.Pipeline()
		pipe.SRem(database.Ctx, KnownTokensKey, oldToken)
		pipe.SAdd(database.Ctx, KnownTokensKey, newToken)
		if _, err := pipe.Exec(database.Ctx); err != nil {
			fmt.Printf("警告: 无法更新已知token缓存: %v\n", err)
		}
	}
	return nil
}

// createUser 创建一个全新的用户和对应IP的Session。
// 两条记录在同一个事务中写入，保证不会留下部分状态。
func createUser(ip string) (*User, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}
	newToken, err := token.GenerateCredentialToken()
	if err != nil {
		return nil, err
	}

	newUser := User{
		ID:          newUUID.String(),
		CookieToken: newToken,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return fmt.Errorf("无法创建新用户: %w", err)
		}
		newSession := Session{UserID: newUser.ID, IPAddress: ip}
		if err := tx.Create(&newSession).Error; err != nil {
			return fmt.Errorf("无法创建Session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if database.IsRedisHealthy() {
		if err := database.RDB.SAdd(database.Ctx, KnownTokensKey, newToken).Err(); err != nil {
			fmt.Printf("警告: 无法将新token加入缓存: %v\n", err)
		}
	}
	return &newUser, nil
}
