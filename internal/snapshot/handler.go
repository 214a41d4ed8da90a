package snapshot

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"github.com/SlpAus/vote-slots-backend/internal/votesource"
	"github.com/gin-gonic/gin"
)

// GetVotes 返回当前的总票数，并在节流允许时顺带追加一条快照。
// 快照写入失败不会影响票数的返回；
// 但票数本身获取失败时必须报错，绝不能用过期或零值掩盖。
func GetVotes(c *gin.Context) {
	votes, err := votesource.Count(c.Request.Context())
	if err != nil {
		if errors.Is(err, votesource.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Vote source is not configured"})
			return
		}
		fmt.Printf("获取票数失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}

	if _, err := RecordIfDue(votes, time.Now()); err != nil {
		fmt.Printf("警告: 追加快照失败: %v\n", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"votes":      votes,
		"voteTarget": config.Cfg.Game.VoteTarget,
	})
}

// GetHistory 返回全部快照历史，按时间升序排列。
func GetHistory(c *gin.Context) {
	history, err := History()
	if err != nil {
		fmt.Printf("获取快照历史失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}
