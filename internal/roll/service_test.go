package roll

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/SlpAus/vote-slots-backend/internal/user"
	"github.com/SlpAus/vote-slots-backend/internal/votesource"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubSource 是测试用的固定票数数据源
type stubSource struct {
	count int
	err   error
}

func (s stubSource) Count(ctx context.Context) (int, error) {
	return s.count, s.err
}

func (s stubSource) Timestamps(ctx context.Context) ([]int64, error) {
	return nil, s.err
}

func setupRollTest(t *testing.T, votes int, votesPerRoll int) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &user.Session{}))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	database.SetRedisHealthy(true)

	config.Cfg = &config.Config{
		Game: config.GameConfig{VotesPerRoll: votesPerRoll},
	}
	votesource.Use(stubSource{count: votes})
}

func createTestUser(t *testing.T, ip string) *user.User {
	t.Helper()
	u, err := user.Resolve("", ip)
	require.NoError(t, err)
	return u
}

func TestPerformRollEndToEndExample(t *testing.T) {
	setupRollTest(t, 10, 1)
	u := createTestUser(t, "203.0.113.7")

	outcome, err := PerformRoll(context.Background(), u.CookieToken, "203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RollsMade)
	assert.Equal(t, outcome.BonusWon, outcome.RollsBonuses)
	// 10票每票一次：抽一次后剩9次，外加本次赢得的奖励
	assert.Equal(t, 9+outcome.BonusWon, outcome.AvailableRolls)

	require.Len(t, outcome.Positions, 3)
	require.Len(t, outcome.Symbols, 3)
	for i, pos := range outcome.Positions {
		assert.GreaterOrEqual(t, pos, 0)
		assert.Less(t, pos, len(Symbols))
		assert.Equal(t, Symbols[pos], outcome.Symbols[i])
	}
	assert.Equal(t, CalculateWinnings([3]int{outcome.Positions[0], outcome.Positions[1], outcome.Positions[2]}), outcome.BonusWon)
	assert.Len(t, outcome.ResultHash, 64)

	// 结果只有在计数器提交后才返回
	fresh, err := user.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.RollsMade)
	assert.Equal(t, outcome.BonusWon, fresh.RollsBonuses)
}

func TestPerformRollNoEntitlement(t *testing.T) {
	setupRollTest(t, 0, 1)
	u := createTestUser(t, "203.0.113.8")

	_, err := PerformRoll(context.Background(), u.CookieToken, "203.0.113.8")
	assert.ErrorIs(t, err, ErrNoRollsAvailable)

	// 失败的请求不留下任何部分更新
	fresh, err := user.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.RollsMade)
	assert.Equal(t, 0, fresh.RollsBonuses)
}

func TestPerformRollUnknownToken(t *testing.T) {
	setupRollTest(t, 10, 1)

	_, err := PerformRoll(context.Background(), "deadbeef", "203.0.113.9")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestPerformRollWrongIP(t *testing.T) {
	setupRollTest(t, 10, 1)
	u := createTestUser(t, "203.0.113.10")

	_, err := PerformRoll(context.Background(), u.CookieToken, "198.51.100.1")
	assert.ErrorIs(t, err, ErrNoSessionForIP)
}

func TestPerformRollEntitlementRecomputedFresh(t *testing.T) {
	setupRollTest(t, 10, 1)
	u := createTestUser(t, "203.0.113.11")

	// 数据源在两次请求之间掉到0：之前响应里的额度不被信任
	votesource.Use(stubSource{count: 0})
	_, err := PerformRoll(context.Background(), u.CookieToken, "203.0.113.11")
	assert.ErrorIs(t, err, ErrNoRollsAvailable)
}

// 同一用户只剩一个单位额度时，两个并发请求不可能都消耗它。
// 赢家可能中奖并即刻产生新的额度，因此第二个请求要么拿到
// ErrNoRollsAvailable，要么消耗的是奖励出来的新单位。
func TestPerformRollConcurrentSingleEntitlement(t *testing.T) {
	setupRollTest(t, 1, 1)
	u := createTestUser(t, "203.0.113.12")

	var wg sync.WaitGroup
	outcomes := make([]*Outcome, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = PerformRoll(context.Background(), u.CookieToken, "203.0.113.12")
		}(i)
	}
	wg.Wait()

	successCount := 0
	bonusSum := 0
	for i := 0; i < 2; i++ {
		if errs[i] == nil {
			successCount++
			bonusSum += outcomes[i].BonusWon
		} else {
			assert.ErrorIs(t, errs[i], ErrNoRollsAvailable)
		}
	}
	require.GreaterOrEqual(t, successCount, 1)
	if successCount == 2 {
		// 只有赢得奖励才可能让第二个请求成功
		assert.Greater(t, bonusSum, 0)
	}

	fresh, err := user.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, successCount, fresh.RollsMade)
	assert.Equal(t, bonusSum, fresh.RollsBonuses)
}
