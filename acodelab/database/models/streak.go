package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Streak types
const (
	StreakDailyLogin       = "daily_login"
	StreakQuestionAnswered = "question_answered"
	StreakDailyActivity    = "daily_activity"
	StreakWeeklyGoal       = "weekly_goal"
)

// StreakTypes lists every known streak type in a stable order.
var StreakTypes = []string{
	StreakDailyLogin,
	StreakQuestionAnswered,
	StreakDailyActivity,
	StreakWeeklyGoal,
}

// Streak tracks consecutive-day activity per user per type, unique per
// (user_id, streak_type). LastActivityDate is day-granular (stored at
// midnight UTC); BestCount never drops below CurrentCount.
type Streak struct {
	bun.BaseModel `bun:"table:streaks,alias:s"`

	ID         string `bun:"id,pk"`
	UserID     string `bun:"user_id,notnull"`
	StreakType string `bun:"streak_type,notnull"`

	CurrentCount int `bun:"current_count,notnull,default:0"`
	BestCount    int `bun:"best_count,notnull,default:0"`

	LastActivityDate time.Time `bun:"last_activity_date"`
	IsActive         bool      `bun:"is_active,notnull,default:true"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
