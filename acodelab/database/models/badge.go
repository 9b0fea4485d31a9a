package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Badge types
const (
	BadgeTypeAchievement = "achievement"
	BadgeTypeRank        = "rank"
	BadgeTypeSpecial     = "special"
	BadgeTypeEvent       = "event"
	BadgeTypeMilestone   = "milestone"
)

// Badge is a catalog entry; per-user awards live in UserBadge.
type Badge struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	Icon        string `bun:"icon,notnull"`
	Color       string `bun:"color,notnull"`
	BadgeType   string `bun:"badge_type,notnull"`

	Requirements map[string]any `bun:"requirements,type:jsonb"`

	IsRare    bool `bun:"is_rare,notnull,default:false"`
	SortOrder int  `bun:"sort_order,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}

// UserBadge is unique per (user, badge); awarding an already-held badge
// returns the existing row unchanged.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	ID      string `bun:"id,pk"`
	UserID  string `bun:"user_id,notnull"`
	BadgeID string `bun:"badge_id,notnull"`

	Badge *Badge `bun:"rel:belongs-to,join:badge_id=id"`

	EarnedAt   time.Time `bun:"earned_at,notnull"`
	IsFeatured bool      `bun:"is_featured,notnull,default:false"`
}
