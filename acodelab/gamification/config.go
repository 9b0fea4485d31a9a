package gamification

import "github.com/acodelab/backend/acodelab/database/models"

// Config carries every tunable award table. The TOML config layer fills it
// in; anything left zero falls back to DefaultConfig values.
type Config struct {
	PCPoints   map[string]int64 `toml:"pc_points"`
	PConPoints map[string]int64 `toml:"pcon_points"`

	RankTiers        []RankTier               `toml:"rank_tiers"`
	StreakMilestones []StreakMilestone        `toml:"streak_milestones"`
	ReferralBonuses  map[string]ReferralBonus `toml:"referral_bonuses"`

	LeaderboardSize int `toml:"leaderboard_size"`
}

// RankTier is one rung of the rank ladder. A user holds the highest tier
// whose PC and PCon minimums they both meet.
type RankTier struct {
	Name    string `toml:"name"`
	MinPC   int64  `toml:"min_pc"`
	MinPCon int64  `toml:"min_pcon"`
	BadgeID string `toml:"badge_id"`
}

// StreakMilestone fires exactly when a streak of the given type reaches
// Days. Zero rewards and empty ids are skipped.
type StreakMilestone struct {
	StreakType string `toml:"streak_type"`
	Days       int    `toml:"days"`
	PCBonus    int64  `toml:"pc_bonus"`
	PConBonus  int64  `toml:"pcon_bonus"`
	BadgeID    string `toml:"badge_id"`
	// RecheckAchievements runs the achievement engine after the payout,
	// for milestones that are also achievement criteria.
	RecheckAchievements bool `toml:"recheck_achievements"`
}

// ReferralBonus is the payout to the referrer for one referral milestone.
type ReferralBonus struct {
	PCReward   int64 `toml:"pc_reward"`
	PConReward int64 `toml:"pcon_reward"`
}

// DefaultConfig returns the stock award tables.
func DefaultConfig() Config {
	return Config{
		PCPoints: map[string]int64{
			models.ActionQuestionCreated:  5,
			models.ActionAnswerCreated:    10,
			models.ActionAnswerAccepted:   25,
			models.ActionReceivedUpvote:   3,
			models.ActionReceivedDownvote: -1,
			models.ActionDailyLogin:       1,
			models.ActionProfileCompleted: 10,
		},
		PConPoints: map[string]int64{
			models.ActionQuestionSolved:      2,
			models.ActionAnswerAccepted:      5,
			models.ActionAchievementUnlocked: 10,
		},
		RankTiers: []RankTier{
			{Name: "Iniciante", MinPC: 0, MinPCon: 0},
			{Name: "Colaborador", MinPC: 50, MinPCon: 25, BadgeID: "rank_colaborador"},
			{Name: "Especialista", MinPC: 150, MinPCon: 75, BadgeID: "rank_especialista"},
			{Name: "Veterano", MinPC: 300, MinPCon: 150, BadgeID: "rank_veterano"},
			{Name: "Mestre", MinPC: 600, MinPCon: 300, BadgeID: "rank_mestre"},
			{Name: "Lenda", MinPC: 1200, MinPCon: 600, BadgeID: "rank_lenda"},
		},
		StreakMilestones: []StreakMilestone{
			{StreakType: models.StreakDailyLogin, Days: 7, PCBonus: 10, PConBonus: 5, BadgeID: "week_warrior"},
			{StreakType: models.StreakDailyLogin, Days: 30, PCBonus: 50, PConBonus: 25, BadgeID: "month_master"},
			{StreakType: models.StreakDailyLogin, Days: 100, PCBonus: 200, PConBonus: 100, RecheckAchievements: true},
			{StreakType: models.StreakDailyActivity, Days: 14, PCBonus: 20, PConBonus: 10},
			{StreakType: models.StreakDailyActivity, Days: 60, PCBonus: 100, PConBonus: 50},
		},
		ReferralBonuses: map[string]ReferralBonus{
			models.MilestoneSignup:        {PCReward: 10, PConReward: 5},
			models.MilestoneFirstQuestion: {PCReward: 5, PConReward: 3},
			models.MilestoneFirstAnswer:   {PCReward: 10, PConReward: 5},
			models.MilestoneActiveUser:    {PCReward: 25, PConReward: 15},
		},
		LeaderboardSize: 50,
	}
}
