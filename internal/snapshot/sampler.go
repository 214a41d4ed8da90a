package snapshot

import (
	"fmt"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/votesource"
	"github.com/SlpAus/vote-slots-backend/pkg/lifecycle"
)

// StartSampler 启动后台采样循环，让趋势图在没有前端流量时也保持连续。
// 它复用RecordIfDue的节流逻辑，因此与请求路径的快照不会互相重复。
func StartSampler(handle *lifecycle.Handle) {
	defer handle.Close()

	for {
		if err := handle.Sleep(SampleInterval); err != nil {
			fmt.Println("快照采样器已停止。")
			return
		}

		votes, err := votesource.Count(handle.Ctx())
		if err != nil {
			fmt.Printf("警告: 后台采样获取票数失败: %v\n", err)
			continue
		}
		if _, err := RecordIfDue(votes, time.Now()); err != nil {
			fmt.Printf("警告: 后台采样写入快照失败: %v\n", err)
		}
	}
}
