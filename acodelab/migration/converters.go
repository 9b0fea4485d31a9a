// converters.go
package migration

import (
	"github.com/acodelab/backend/acodelab/database/models"
)

func convertUser(doc LegacyUser) *models.User {
	id := doc.UserID
	if id == "" {
		id = doc.OID.Hex()
	}
	rank := doc.Rank
	if rank == "" {
		rank = "Iniciante"
	}
	return &models.User{
		ID:         id,
		Username:   doc.Username,
		AvatarURL:  doc.AvatarURL,
		PCPoints:   clampNonNegative(doc.PCPoints),
		PConPoints: clampNonNegative(doc.PConPoints),
		Rank:       rank,
		Followers:  doc.Followers,
		Following:  doc.Following,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func convertPointsEntry(doc LegacyPointsEntry) *models.PointsHistory {
	return &models.PointsHistory{
		ID:         doc.OID.Hex(),
		UserID:     doc.UserID,
		Action:     doc.Action,
		PCChange:   doc.PCChange,
		PConChange: doc.PConChange,
		PCTotal:    clampNonNegative(doc.PCTotal),
		PConTotal:  clampNonNegative(doc.PConTotal),
		TargetID:   doc.TargetID,
		TargetType: doc.TargetType,
		CreatedAt:  doc.CreatedAt,
	}
}

func convertStreak(doc LegacyStreak) *models.Streak {
	current := int(doc.CurrentCount)
	best := int(doc.BestCount)
	if best < current {
		best = current
	}
	return &models.Streak{
		ID:               doc.OID.Hex(),
		UserID:           doc.UserID,
		StreakType:       doc.StreakType,
		CurrentCount:     current,
		BestCount:        best,
		LastActivityDate: doc.LastActivityDate,
		IsActive:         doc.IsActive,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func convertUserAchievement(doc LegacyUserAchievement) *models.UserAchievement {
	return &models.UserAchievement{
		ID:            doc.OID.Hex(),
		UserID:        doc.UserID,
		AchievementID: doc.AchievementID,
		Progress:      doc.Progress,
		EarnedAt:      doc.EarnedAt,
		IsEarned:      doc.IsEarned,
		CreatedAt:     doc.CreatedAt,
	}
}

func convertUserBadge(doc LegacyUserBadge) *models.UserBadge {
	return &models.UserBadge{
		ID:         doc.OID.Hex(),
		UserID:     doc.UserID,
		BadgeID:    doc.BadgeID,
		EarnedAt:   doc.EarnedAt,
		IsFeatured: doc.IsFeatured,
	}
}

func convertReferral(doc LegacyReferral) *models.ReferralReward {
	return &models.ReferralReward{
		ID:         doc.OID.Hex(),
		ReferrerID: doc.ReferrerID,
		ReferredID: doc.ReferredID,
		Milestone:  doc.Milestone,
		PCReward:   doc.PCReward,
		PConReward: doc.PConReward,
		CreatedAt:  doc.CreatedAt,
	}
}

// clampNonNegative mirrors the ledger's floor: totals below zero in the
// legacy data import as zero.
func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
