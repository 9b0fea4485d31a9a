package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Point-changing actions the ledger understands. The award tables in the
// configuration map these to PC/PCon deltas; an action missing from both
// tables is a logged no-op.
const (
	ActionQuestionCreated     = "question_created"
	ActionAnswerCreated       = "answer_created"
	ActionAnswerAccepted      = "answer_accepted"
	ActionQuestionSolved      = "question_solved"
	ActionReceivedUpvote      = "received_upvote"
	ActionReceivedDownvote    = "received_downvote"
	ActionDailyLogin          = "daily_login"
	ActionProfileCompleted    = "profile_completed"
	ActionAchievementUnlocked = "achievement_unlocked"
	ActionStreakMilestone     = "streak_milestone"
	ActionReferralBonus       = "referral_bonus"
)

// PointsHistory is the append-only ledger of every point change. Rows are
// never mutated or deleted; the totals columns snapshot the user's balance
// immediately after the change, and the windowed leaderboards aggregate
// over the change columns.
type PointsHistory struct {
	bun.BaseModel `bun:"table:points_history,alias:ph"`

	ID     string `bun:"id,pk"`
	UserID string `bun:"user_id,notnull"`
	Action string `bun:"action,notnull"`

	PCChange   int64 `bun:"pc_points_change,notnull"`
	PConChange int64 `bun:"pcon_points_change,notnull"`
	PCTotal    int64 `bun:"pc_points_total,notnull"`
	PConTotal  int64 `bun:"pcon_points_total,notnull"`

	TargetID   string `bun:"target_id"`
	TargetType string `bun:"target_type"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
