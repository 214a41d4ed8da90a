package roll

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRollResultDeterministic(t *testing.T) {
	seed := "0190a1b2-0001-7000-8000-000000000001-3-1700000000000"

	first := GenerateRollResult(seed)
	second := GenerateRollResult(seed)
	assert.Equal(t, first, second)

	for _, pos := range first {
		assert.GreaterOrEqual(t, pos, 0)
		assert.Less(t, pos, len(Symbols))
	}
}

// 16位窗口取自摘要hex字符串的[0:4) [4:8) [8:12)，
// 等价于摘要字节对(0,1) (2,3) (4,5)。用字节路径独立验证推导。
func TestGenerateRollResultWindowDerivation(t *testing.T) {
	seed := "window-derivation-check"
	positions := GenerateRollResult(seed)

	sum := sha256.Sum256([]byte(seed))
	for i := 0; i < 3; i++ {
		value := uint32(sum[2*i])<<8 | uint32(sum[2*i+1])
		assert.Equal(t, int(value)%len(Symbols), positions[i])
	}
}

func TestBuildSeedComponents(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	base := BuildSeed("user-a", 0, now)
	assert.Equal(t, "user-a-0-1700000000000", base)

	// 任何分量变化都会产生不同的种子，从而产生不同的resultHash
	otherRoll := BuildSeed("user-a", 1, now)
	otherTime := BuildSeed("user-a", 0, now.Add(time.Millisecond))
	otherUser := BuildSeed("user-b", 0, now)

	assert.NotEqual(t, base, otherRoll)
	assert.NotEqual(t, base, otherTime)
	assert.NotEqual(t, base, otherUser)

	basePositions := GenerateRollResult(base)
	assert.NotEqual(t, ResultHash(base, basePositions), ResultHash(otherRoll, GenerateRollResult(otherRoll)))
}

func TestResultHashStableAndVerifiable(t *testing.T) {
	seed := "user-c-7-1700000000123"
	positions := GenerateRollResult(seed)

	hash := ResultHash(seed, positions)
	require.Len(t, hash, 64)

	// 结果重放校验：凭种子重新推导即可核对声称的结果
	assert.Equal(t, hash, ResultHash(seed, GenerateRollResult(seed)))
}

func TestCalculateWinnings(t *testing.T) {
	tests := []struct {
		name      string
		positions [3]int
		want      int
	}{
		{"cherry三连", [3]int{0, 0, 0}, 5},
		{"lemon三连", [3]int{1, 1, 1}, 10},
		{"orange三连", [3]int{2, 2, 2}, 20},
		{"plum三连", [3]int{3, 3, 3}, 30},
		{"seven三连", [3]int{4, 4, 4}, 50},
		{"全不相同", [3]int{0, 1, 2}, 0},
		// 两个相同不奖励：有意的简化，不是缺陷
		{"两个相同", [3]int{0, 0, 1}, 0},
		{"两个seven", [3]int{4, 4, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateWinnings(tt.positions))
		})
	}
}
