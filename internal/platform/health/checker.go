package health

import (
	"fmt"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/SlpAus/vote-slots-backend/pkg/lifecycle"
)

// checkInterval 是后台健康检查的周期
const checkInterval = 15 * time.Second

// PerformCheck 执行一次同步的Redis健康检查，并更新全局状态。
func PerformCheck() {
	err := database.RDB.Ping(database.Ctx).Err()
	database.SetRedisHealthy(err == nil)
}

// StartRedisHealthCheck 启动后台的持续健康检查循环。
// 它通过生命周期句柄接收停机信号。
func StartRedisHealthCheck(handle *lifecycle.Handle) {
	defer handle.Close()

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			fmt.Println("健康检查器已停止。")
			return
		}
		PerformCheck()
	}
}
