package migration

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConvertUser(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name     string
		doc      LegacyUser
		wantID   string
		wantRank string
		wantPC   int64
	}{
		{
			name: "full document",
			doc: LegacyUser{
				OID:      oid,
				UserID:   "u1",
				Username: "ana",
				PCPoints: 120,
				Rank:     "Colaborador",
			},
			wantID:   "u1",
			wantRank: "Colaborador",
			wantPC:   120,
		},
		{
			name:     "missing user_id falls back to the object id",
			doc:      LegacyUser{OID: oid, Username: "bia"},
			wantID:   oid.Hex(),
			wantRank: "Iniciante",
		},
		{
			name:     "negative totals import as zero",
			doc:      LegacyUser{OID: oid, UserID: "u2", PCPoints: -40},
			wantID:   "u2",
			wantRank: "Iniciante",
			wantPC:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertUser(tt.doc)
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Rank != tt.wantRank {
				t.Errorf("Rank = %q, want %q", got.Rank, tt.wantRank)
			}
			if got.PCPoints != tt.wantPC {
				t.Errorf("PCPoints = %d, want %d", got.PCPoints, tt.wantPC)
			}
		})
	}
}

func TestConvertStreak_BestNeverBelowCurrent(t *testing.T) {
	got := convertStreak(LegacyStreak{
		OID:          primitive.NewObjectID(),
		UserID:       "u1",
		StreakType:   "daily_login",
		CurrentCount: 12,
		BestCount:    5,
	})
	if got.BestCount != 12 {
		t.Errorf("BestCount = %d, want 12", got.BestCount)
	}
}

func TestConvertUserAchievement_KeepsEarnedAt(t *testing.T) {
	earned := time.Date(2023, time.May, 4, 10, 0, 0, 0, time.UTC)
	got := convertUserAchievement(LegacyUserAchievement{
		OID:           primitive.NewObjectID(),
		UserID:        "u1",
		AchievementID: "first_question",
		IsEarned:      true,
		EarnedAt:      &earned,
	})
	if got.EarnedAt == nil || !got.EarnedAt.Equal(earned) {
		t.Errorf("EarnedAt = %v, want %v", got.EarnedAt, earned)
	}
	if !got.IsEarned {
		t.Error("IsEarned lost in conversion")
	}
}
