package roll

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Symbol 定义了老虎机的一个符号。
type Symbol struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Position int    `json:"position"`
}

// Symbols 是固定的有序符号集。
// 顺序参与结果推导（索引即符号），不允许调整。
var Symbols = []Symbol{
	{Name: "cherry", Emoji: "🍒", Position: 0},
	{Name: "lemon", Emoji: "🍋", Position: 1},
	{Name: "orange", Emoji: "🍊", Position: 2},
	{Name: "plum", Emoji: "🍇", Position: 3},
	{Name: "seven", Emoji: "7️⃣", Position: 4},
}

// winningBonuses 是固定的中奖组合表。
// 只有三连相同才有奖励；两个相同不奖励，这是有意的简化而非缺陷。
var winningBonuses = map[string]int{
	"cherry-cherry-cherry": 5,
	"lemon-lemon-lemon":    10,
	"orange-orange-orange": 20,
	"plum-plum-plum":       30,
	"seven-seven-seven":    50,
}

// BuildSeed 构造一次抽奖的种子。
// 混入抽奖前的rollsMade（同一用户重复抽奖不会复用种子）
// 和毫秒级墙钟时间（同一逻辑槽位的两次抽奖也会不同）。
// 这是公平性措施，不是密码学保证：种子的各个分量都是可猜测的。
func BuildSeed(userID string, rollsMade int, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", userID, rollsMade, now.UnixMilli())
}

// GenerateRollResult 从种子确定性地推导三个符号索引。
// 对种子取SHA-256，把摘要的前三个16位窗口分别对符号数取模。
// 结果完全由种子决定，可以凭种子复现和审计。
func GenerateRollResult(seed string) [3]int {
	sum := sha256.Sum256([]byte(seed))
	hash := hex.EncodeToString(sum[:])

	var positions [3]int
	for i := 0; i < 3; i++ {
		window := hash[i*4 : i*4+4]
		value, _ := strconv.ParseUint(window, 16, 32)
		positions[i] = int(value) % len(Symbols)
	}
	return positions
}

// CalculateWinnings 查中奖组合表，未命中返回0。
func CalculateWinnings(positions [3]int) int {
	names := make([]string, 3)
	for i, pos := range positions {
		names[i] = Symbols[pos].Name
	}
	return winningBonuses[strings.Join(names, "-")]
}

// ResultHash 对种子和推导出的符号索引计算第二个摘要，
// 让调用方可以独立验证一个声称的结果与其种子内部一致（结果重放校验）。
// 它不是保密机制，种子分量本身就是可猜测的。
func ResultHash(seed string, positions [3]int) string {
	payload := fmt.Sprintf("%s-%d-%d-%d", seed, positions[0], positions[1], positions[2])
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
