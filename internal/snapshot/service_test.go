package snapshot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSnapshotTest(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&VoteSnapshot{}))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	database.SetRedisHealthy(true)
	return mr
}

func snapshotCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, database.DB.Model(&VoteSnapshot{}).Count(&count).Error)
	return count
}

func TestRecordIfDueThrottling(t *testing.T) {
	mr := setupSnapshotTest(t)
	t0 := time.Now()

	// 没有任何快照：必须写入
	created, err := RecordIfDue(100, t0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 1, snapshotCount(t))

	// 间隔不足10分钟：不写入
	created, err = RecordIfDue(110, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.EqualValues(t, 1, snapshotCount(t))

	// 距上一条恰好满10分钟：写入第二条
	mr.FastForward(SampleInterval)
	created, err = RecordIfDue(120, t0.Add(SampleInterval))
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 2, snapshotCount(t))
}

func TestRecordIfDueRedisCooldownBlocksConcurrentDuplicate(t *testing.T) {
	setupSnapshotTest(t)
	t0 := time.Now()

	created, err := RecordIfDue(100, t0)
	require.NoError(t, err)
	require.True(t, created)

	// 模拟另一个worker在冷却键仍然存在、但数据库判定边缘通过的情况：
	// 冷却键会拦下第二次写入
	created, err = RecordIfDue(101, t0.Add(SampleInterval))
	require.NoError(t, err)
	assert.False(t, created)
	assert.EqualValues(t, 1, snapshotCount(t))
}

func TestRecordIfDueWithoutRedis(t *testing.T) {
	setupSnapshotTest(t)
	database.SetRedisHealthy(false)
	defer database.SetRedisHealthy(true)

	// Redis不可用时节流完全依赖数据库判定，写入照常工作
	created, err := RecordIfDue(100, time.Now())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestHistoryOrderedAscending(t *testing.T) {
	setupSnapshotTest(t)
	base := time.Now().Truncate(time.Second)

	// 乱序写入，读取必须按时间升序
	for _, offset := range []time.Duration{20 * time.Minute, 0, 40 * time.Minute} {
		require.NoError(t, database.DB.Create(&VoteSnapshot{
			Votes:      int(offset.Minutes()),
			RecordedAt: base.Add(offset),
		}).Error)
	}

	history, err := History()
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].RecordedAt.Before(history[i-1].RecordedAt))
	}
}

func TestLatest(t *testing.T) {
	setupSnapshotTest(t)

	_, err := Latest()
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	now := time.Now()
	require.NoError(t, database.DB.Create(&VoteSnapshot{Votes: 1, RecordedAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, database.DB.Create(&VoteSnapshot{Votes: 2, RecordedAt: now}).Error)

	last, err := Latest()
	require.NoError(t, err)
	assert.Equal(t, 2, last.Votes)
}
