package roll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/SlpAus/vote-slots-backend/internal/user"
	"github.com/SlpAus/vote-slots-backend/internal/votesource"
)

var (
	// ErrNoRollsAvailable 表示用户的抽奖额度已耗尽。
	ErrNoRollsAvailable = errors.New("没有可用的抽奖次数")

	// ErrNoSessionForIP 表示凭据有效但当前IP没有对应的Session。
	ErrNoSessionForIP = errors.New("当前IP没有对应的Session")
)

// maxRollAttempts 限制条件更新竞争失败后的重试次数
const maxRollAttempts = 5

// Outcome 是一次成功抽奖的完整结果。
// 它只在计数器变更提交之后才会被构造并返回。
type Outcome struct {
	Positions      []int    `json:"positions"`
	Symbols        []Symbol `json:"symbols"`
	BonusWon       int      `json:"bonusWon"`
	ResultHash     string   `json:"resultHash"`
	RollsMade      int      `json:"rollsMade"`
	RollsBonuses   int      `json:"rollsBonuses"`
	AvailableRolls int      `json:"availableRolls"`
}

// PerformRoll 消耗一个单位的抽奖额度并返回结果。
//
// 额度在抽奖时刻用新取的票数重新计算，不信任之前响应中的值。
// 消耗通过以rollsMade为守卫列的条件更新完成：rollsMade和rollsBonuses
// 在同一条UPDATE中一起变更，要么都提交要么都不提交。
// 两个并发请求不可能都消耗同一个单位——输掉条件更新的一方会重读
// 计数器重新判定额度，额度耗尽时得到ErrNoRollsAvailable。
func PerformRoll(ctx context.Context, presentedToken string, ip string) (*Outcome, error) {
	u, err := user.FindByToken(presentedToken)
	if err != nil {
		return nil, err
	}

	hasSession, err := user.HasSessionForIP(u.ID, ip)
	if err != nil {
		return nil, err
	}
	if !hasSession {
		return nil, ErrNoSessionForIP
	}

	totalVotes, err := votesource.Count(ctx)
	if err != nil {
		return nil, err
	}
	votesPerRoll := config.Cfg.Game.EffectiveVotesPerRoll()

	for attempt := 0; attempt < maxRollAttempts; attempt++ {
		fresh, err := user.GetByID(u.ID)
		if err != nil {
			return nil, err
		}

		available := AvailableRolls(totalVotes, votesPerRoll, fresh.RollsMade, fresh.RollsBonuses)
		if available <= 0 {
			return nil, ErrNoRollsAvailable
		}

		seed := BuildSeed(fresh.ID, fresh.RollsMade, time.Now())
		positions := GenerateRollResult(seed)
		bonusWon := CalculateWinnings(positions)

		// 条件更新：rolls_made作为守卫列，两个计数器一起提交
		res := database.DB.Model(&user.User{}).
			Where("id = ? AND rolls_made = ?", fresh.ID, fresh.RollsMade).
			Updates(map[string]interface{}{
				"rolls_made":    fresh.RollsMade + 1,
				"rolls_bonuses": fresh.RollsBonuses + bonusWon,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("无法提交抽奖结果: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// 输掉了与并发抽奖的竞争，重读计数器再判定
			continue
		}

		newRollsMade := fresh.RollsMade + 1
		newRollsBonuses := fresh.RollsBonuses + bonusWon

		symbols := make([]Symbol, 3)
		for i, pos := range positions {
			symbols[i] = Symbols[pos]
		}

		return &Outcome{
			Positions:      positions[:],
			Symbols:        symbols,
			BonusWon:       bonusWon,
			ResultHash:     ResultHash(seed, positions),
			RollsMade:      newRollsMade,
			RollsBonuses:   newRollsBonuses,
			AvailableRolls: AvailableRolls(totalVotes, votesPerRoll, newRollsMade, newRollsBonuses),
		}, nil
	}

	return nil, fmt.Errorf("抽奖竞争持续失败，已放弃（%d次尝试）", maxRollAttempts)
}
