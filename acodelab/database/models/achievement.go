package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Achievement categories
const (
	CategoryBeginner    = "beginner"
	CategoryContributor = "contributor"
	CategoryExpert      = "expert"
	CategorySocial      = "social"
	CategorySpecial     = "special"
	CategoryMilestone   = "milestone"
	CategoryStreak      = "streak"
	CategoryCompetitive = "competitive"
)

// Achievement rarities
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// CriteriaKind discriminates the criteria variant. Evaluation is an
// exhaustive switch over these kinds, not a string-keyed dispatch table.
type CriteriaKind string

const (
	CriteriaCount   CriteriaKind = "count"
	CriteriaPoints  CriteriaKind = "points"
	CriteriaStreak  CriteriaKind = "streak"
	CriteriaSpecial CriteriaKind = "special"
)

// Special criteria target fields with bespoke evaluation
const (
	SpecialDaysSinceRegistration = "days_since_registration"
	SpecialLeaderboardPosition   = "leaderboard_position"
)

// Criteria describes when an achievement is earned.
//
//   - Count/Points: snapshot[TargetField] >= TargetValue
//   - Streak: current streak of type TargetField >= TargetValue
//   - Special with AdditionalConditions: every listed field meets its value
//   - Special without: bespoke handling per TargetField
//
// TargetValue must be positive for every catalog entry.
type Criteria struct {
	Kind                 CriteriaKind     `json:"condition_type"`
	TargetValue          int64            `json:"target_value"`
	TargetField          string           `json:"target_field,omitempty"`
	AdditionalConditions map[string]int64 `json:"additional_conditions,omitempty"`
}

// Achievement is a catalog entry. The catalog is seeded at startup and
// rarely changes afterwards.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:a"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	Category    string `bun:"category,notnull"`
	Rarity      string `bun:"rarity,notnull"`

	BadgeIcon  string `bun:"badge_icon"`
	BadgeColor string `bun:"badge_color"`

	Criteria Criteria `bun:"criteria,type:jsonb"`

	PointsReward int64 `bun:"points_reward,notnull,default:0"`
	PConReward   int64 `bun:"pcon_reward,notnull,default:0"`

	IsHidden     bool `bun:"is_hidden,notnull,default:false"`
	IsRepeatable bool `bun:"is_repeatable,notnull,default:false"`
	SortOrder    int  `bun:"sort_order,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}

// UserAchievement joins a user to a catalog entry. At most one earned row
// per (user, achievement) unless the achievement is repeatable; a partial
// unique index enforces that for the non-repeatable case.
type UserAchievement struct {
	bun.BaseModel `bun:"table:user_achievements,alias:ua"`

	ID            string `bun:"id,pk"`
	UserID        string `bun:"user_id,notnull"`
	AchievementID string `bun:"achievement_id,notnull"`

	Achievement *Achievement `bun:"rel:belongs-to,join:achievement_id=id"`

	Progress   int64      `bun:"progress,notnull,default:0"`
	EarnedAt   *time.Time `bun:"earned_at"`
	IsEarned   bool       `bun:"is_earned,notnull,default:false"`
	Repeatable bool       `bun:"repeatable,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}

// AchievementProgress is the advisory progress view returned to callers;
// it is computed fresh from a statistics snapshot and never persisted.
type AchievementProgress struct {
	AchievementID   string       `json:"achievement_id"`
	Achievement     *Achievement `json:"achievement"`
	CurrentProgress int64        `json:"current_progress"`
	TargetProgress  int64        `json:"target_progress"`
	Percentage      float64      `json:"percentage"`
	IsEarned        bool         `json:"is_earned"`
	EarnedAt        *time.Time   `json:"earned_at,omitempty"`
}
