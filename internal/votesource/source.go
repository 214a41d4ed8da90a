package votesource

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConfigured 表示外部数据源缺少必要的连接参数。
// 它在请求边界被映射为配置错误(5xx)。
var ErrNotConfigured = errors.New("投票数据源未配置")

// Source 抽象了外部投票数据源。
// Count 返回当前的总票数；Timestamps 返回每条投票的unix秒级时间戳（升序）。
// 数据源对本系统是只读的。
type Source interface {
	Count(ctx context.Context) (int, error)
	Timestamps(ctx context.Context) ([]int64, error)
}

var (
	mu     sync.RWMutex
	active Source
)

// Use 设置进程级的数据源实现。
// 它在main中被调用一次；测试可以用它注入桩实现。
func Use(s Source) {
	mu.Lock()
	defer mu.Unlock()
	active = s
}

func current() (Source, error) {
	mu.RLock()
	defer mu.RUnlock()
	if active == nil {
		return nil, ErrNotConfigured
	}
	return active, nil
}

// Count 返回当前总票数。
// 每次授权计算都必须重新调用它，不允许跨请求缓存结果。
func Count(ctx context.Context) (int, error) {
	s, err := current()
	if err != nil {
		return 0, err
	}
	return s.Count(ctx)
}

// Timestamps 返回全部投票时间戳（unix秒，升序）。
func Timestamps(ctx context.Context) ([]int64, error) {
	s, err := current()
	if err != nil {
		return nil, err
	}
	return s.Timestamps(ctx)
}
