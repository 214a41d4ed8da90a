package roll

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"github.com/SlpAus/vote-slots-backend/internal/user"
	"github.com/SlpAus/vote-slots-backend/internal/votesource"
	"github.com/gin-gonic/gin"
)

// GetStats 返回当前用户的抽奖统计。
// 身份解析由EnsureIdentityMiddleware完成，必要时会创建新用户并下发Cookie。
func GetStats(c *gin.Context) {
	u, ok := user.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve identity"})
		return
	}

	totalVotes, err := votesource.Count(c.Request.Context())
	if err != nil {
		if errors.Is(err, votesource.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Vote source is not configured"})
			return
		}
		fmt.Printf("获取票数失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch roll stats"})
		return
	}

	votesPerRoll := config.Cfg.Game.EffectiveVotesPerRoll()
	c.JSON(http.StatusOK, gin.H{
		"availableRolls": AvailableRolls(totalVotes, votesPerRoll, u.RollsMade, u.RollsBonuses),
		"rollsMade":      u.RollsMade,
		"rollsBonuses":   u.RollsBonuses,
		"totalVotes":     totalVotes,
		"votesPerRoll":   votesPerRoll,
	})
}

// SubmitRoll 处理一次抽奖请求。
// 与stats不同，它不会创建新身份：凭据缺失、无法解析、
// 或当前IP没有Session时分别返回401/404/403。
func SubmitRoll(c *gin.Context) {
	presented, err := c.Cookie(user.CookieName)
	if err != nil || presented == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No user token found"})
		return
	}
	ip := user.ClientIP(c)

	outcome, err := PerformRoll(c.Request.Context(), presented, ip)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, ErrNoSessionForIP):
			c.JSON(http.StatusForbidden, gin.H{"error": "Session not found for this IP"})
		case errors.Is(err, ErrNoRollsAvailable):
			c.JSON(http.StatusForbidden, gin.H{"error": "No rolls available"})
		case errors.Is(err, votesource.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Vote source is not configured"})
		default:
			fmt.Printf("处理抽奖失败: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process roll"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}
