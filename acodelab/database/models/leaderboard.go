package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Leaderboard types. Weekly and monthly point types aggregate ledger
// deltas inside the window; all-time point types read current stored
// totals; the activity types count answers.
const (
	LeaderboardWeeklyPC          = "weekly_pc"
	LeaderboardWeeklyPCon        = "weekly_pcon"
	LeaderboardMonthlyPC         = "monthly_pc"
	LeaderboardMonthlyPCon       = "monthly_pcon"
	LeaderboardAllTimePC         = "all_time_pc"
	LeaderboardAllTimePCon       = "all_time_pcon"
	LeaderboardQuestionsAnswered = "questions_answered"
	LeaderboardBestAnswers       = "best_answers"
)

// LeaderboardTypes lists every generated type in a stable order.
var LeaderboardTypes = []string{
	LeaderboardWeeklyPC,
	LeaderboardWeeklyPCon,
	LeaderboardMonthlyPC,
	LeaderboardMonthlyPCon,
	LeaderboardAllTimePC,
	LeaderboardAllTimePCon,
	LeaderboardQuestionsAnswered,
	LeaderboardBestAnswers,
}

// LeaderboardEntry is one ranked row of a snapshot. Position is 1-based;
// ties are broken score DESC then user_id ASC so positions are stable.
type LeaderboardEntry struct {
	Position  int      `json:"position"`
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Score     int64    `json:"score"`
	Rank      string   `json:"rank,omitempty"`
	Badges    []string `json:"badges"`
}

// Leaderboard is the single current snapshot per type; regeneration
// replaces the stored row, no history is kept in the database.
type Leaderboard struct {
	bun.BaseModel `bun:"table:leaderboards,alias:lb"`

	LeaderboardType string             `bun:"leaderboard_type,pk"`
	Entries         []LeaderboardEntry `bun:"entries,type:jsonb"`

	PeriodStart time.Time `bun:"period_start,notnull"`
	PeriodEnd   time.Time `bun:"period_end,notnull"`
	LastUpdated time.Time `bun:"last_updated,notnull"`
}
