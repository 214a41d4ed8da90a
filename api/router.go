package api

import (
	"github.com/SlpAus/vote-slots-backend/internal/roll"
	"github.com/SlpAus/vote-slots-backend/internal/snapshot"
	"github.com/SlpAus/vote-slots-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 票数与趋势图相关的路由
		api.GET("/votes", snapshot.GetVotes)
		api.GET("/history", snapshot.GetHistory)

		// 抽奖相关的路由组 /api/rolls
		rollRoutes := api.Group("/rolls")
		{
			rollRoutes.GET("/stats", user.EnsureIdentityMiddleware(), roll.GetStats)
			rollRoutes.POST("/roll", roll.SubmitRoll)
		}
	}
}
