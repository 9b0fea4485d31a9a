package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Referral milestones. Signup is recorded when the referral is created;
// the rest are reported by the Q&A layer as the referred user gets going.
const (
	MilestoneSignup        = "signup"
	MilestoneFirstQuestion = "first_question"
	MilestoneFirstAnswer   = "first_answer"
	MilestoneActiveUser    = "active_user"
)

// ReferralReward records one paid-out milestone for a referral. A user can
// be referred at most once, and each milestone pays at most once per
// referral (unique on referred_id + milestone).
type ReferralReward struct {
	bun.BaseModel `bun:"table:referral_rewards,alias:rr"`

	ID         string `bun:"id,pk"`
	ReferrerID string `bun:"referrer_id,notnull"`
	ReferredID string `bun:"referred_id,notnull"`
	Milestone  string `bun:"milestone,notnull"`

	PCReward   int64 `bun:"pc_reward,notnull"`
	PConReward int64 `bun:"pcon_reward,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
