// types.go
package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The legacy platform kept everything in MongoDB. These structs mirror the
// documents as they exist there, bson tags and all; the converters map
// them onto the relational models.

// LegacyUser is a user document.
type LegacyUser struct {
	OID        primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	Username   string             `bson:"username"`
	AvatarURL  string             `bson:"avatar_url"`
	PCPoints   int64              `bson:"pc_points"`
	PConPoints int64              `bson:"pcon_points"`
	Rank       string             `bson:"rank"`
	Followers  []string           `bson:"followers"`
	Following  []string           `bson:"following"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// LegacyPointsEntry is one points_history document.
type LegacyPointsEntry struct {
	OID        primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	Action     string             `bson:"action"`
	PCChange   int64              `bson:"pc_points_change"`
	PConChange int64              `bson:"pcon_points_change"`
	PCTotal    int64              `bson:"pc_points_total"`
	PConTotal  int64              `bson:"pcon_points_total"`
	TargetID   string             `bson:"target_id"`
	TargetType string             `bson:"target_type"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// LegacyStreak is one streaks document.
type LegacyStreak struct {
	OID              primitive.ObjectID `bson:"_id"`
	UserID           string             `bson:"user_id"`
	StreakType       string             `bson:"streak_type"`
	CurrentCount     int32              `bson:"current_count"`
	BestCount        int32              `bson:"best_count"`
	LastActivityDate time.Time          `bson:"last_activity_date"`
	IsActive         bool               `bson:"is_active"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

// LegacyUserAchievement is one user_achievements document.
type LegacyUserAchievement struct {
	OID           primitive.ObjectID `bson:"_id"`
	UserID        string             `bson:"user_id"`
	AchievementID string             `bson:"achievement_id"`
	Progress      int64              `bson:"progress"`
	EarnedAt      *time.Time         `bson:"earned_at"`
	IsEarned      bool               `bson:"is_earned"`
	CreatedAt     time.Time          `bson:"created_at"`
}

// LegacyUserBadge is one user_badges document.
type LegacyUserBadge struct {
	OID        primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	BadgeID    string             `bson:"badge_id"`
	EarnedAt   time.Time          `bson:"earned_at"`
	IsFeatured bool               `bson:"is_featured"`
}

// LegacyReferral is one referral_rewards document.
type LegacyReferral struct {
	OID        primitive.ObjectID `bson:"_id"`
	ReferrerID string             `bson:"referrer_id"`
	ReferredID string             `bson:"referred_id"`
	Milestone  string             `bson:"milestone"`
	PCReward   int64              `bson:"pc_reward"`
	PConReward int64              `bson:"pcon_reward"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// TableStats counts one collection's import.
type TableStats struct {
	Read     int64
	Inserted int64
	Skipped  int64
	Failed   int64
}

// ImportStats aggregates a full run.
type ImportStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
