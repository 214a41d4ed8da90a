package roll

// AvailableRolls 计算一个用户当前可用的抽奖次数。
// 纯函数：max(0, totalVotes/votesPerRoll + rollsBonuses - rollsMade)。
// 对totalVotes和rollsBonuses单调递增，对rollsMade单调递减。
// totalVotes必须是当次请求新取的值，禁止跨请求缓存，
// 因为外部数据源随时可能变化。
func AvailableRolls(totalVotes, votesPerRoll, rollsMade, rollsBonuses int) int {
	if votesPerRoll <= 0 {
		votesPerRoll = 1 // 绝不除零
	}
	available := totalVotes/votesPerRoll + rollsBonuses - rollsMade
	if available < 0 {
		return 0
	}
	return available
}
