package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// StreakUpdate reports one processed streak activity.
type StreakUpdate struct {
	Streak *models.Streak
	// Advanced is false when the activity was already counted today.
	Advanced bool
	// Milestones lists the day counts hit by this update, if any.
	Milestones []int
}

// StreakService tracks consecutive-day activity and pays milestone
// bonuses.
type StreakService struct {
	cfg          Config
	streaks      repositories.StreakRepository
	points       *PointsService
	badges       *BadgeService
	achievements *AchievementService
}

func NewStreakService(cfg Config, streaks repositories.StreakRepository, points *PointsService, badges *BadgeService, achievements *AchievementService) *StreakService {
	return &StreakService{
		cfg:          cfg,
		streaks:      streaks,
		points:       points,
		badges:       badges,
		achievements: achievements,
	}
}

// dayUTC truncates an instant to its UTC calendar day.
func dayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UpdateStreak records one day of activity for the streak type. Repeat
// calls on the same UTC day are no-ops; a one-day gap continues the
// streak, anything longer resets the current count to 1 while the best
// count stands. Milestone bonuses fire only on the call that actually
// moved the count to the milestone day, so a same-day repeat can never pay
// twice.
func (s *StreakService) UpdateStreak(ctx context.Context, userID, streakType string) (*StreakUpdate, error) {
	today := dayUTC(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	advanced := false
	streak, err := s.streaks.Mutate(ctx, userID, streakType, func(st *models.Streak) error {
		last := dayUTC(st.LastActivityDate)
		switch {
		case st.LastActivityDate.IsZero() || st.CurrentCount == 0:
			st.CurrentCount = 1
			advanced = true
		case last.Equal(today):
			return nil
		case last.Equal(yesterday):
			st.CurrentCount++
			advanced = true
		default:
			st.CurrentCount = 1
			advanced = true
		}
		st.LastActivityDate = today
		st.IsActive = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s streak for %s: %w", streakType, userID, err)
	}

	update := &StreakUpdate{Streak: streak, Advanced: advanced}
	if !advanced {
		return update, nil
	}

	for _, m := range s.cfg.StreakMilestones {
		if m.StreakType != streakType || m.Days != streak.CurrentCount {
			continue
		}
		update.Milestones = append(update.Milestones, m.Days)
		s.payMilestone(ctx, userID, streakType, m)
	}
	return update, nil
}

func (s *StreakService) payMilestone(ctx context.Context, userID, streakType string, m StreakMilestone) {
	slog.Info("Streak milestone reached",
		slog.String("type", "award"),
		slog.String("user_id", userID),
		slog.String("streak_type", streakType),
		slog.Int("days", m.Days))

	if m.PCBonus != 0 || m.PConBonus != 0 {
		if _, err := s.points.AwardCustom(ctx, userID,
			models.ActionStreakMilestone,
			m.PCBonus, m.PConBonus,
			fmt.Sprintf("%s:%d", streakType, m.Days), "streak"); err != nil {
			slog.Error("Streak bonus payout failed",
				slog.String("type", "award"),
				slog.String("user_id", userID),
				slog.String("streak_type", streakType),
				slog.Int("days", m.Days),
				slog.String("error", err.Error()))
		}
	}
	if m.BadgeID != "" && s.badges != nil {
		if _, _, err := s.badges.AwardBadge(ctx, userID, m.BadgeID, false); err != nil {
			slog.Error("Streak badge grant failed",
				slog.String("type", "award"),
				slog.String("user_id", userID),
				slog.String("badge_id", m.BadgeID),
				slog.String("error", err.Error()))
		}
	}
	if m.RecheckAchievements && s.achievements != nil {
		if _, err := s.achievements.CheckAchievements(ctx, userID); err != nil {
			slog.Error("Post-milestone achievement check failed",
				slog.String("type", "award"),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}
}

// GetUserStreaks returns one row per known streak type, including
// zero-value rows for types the user has never touched.
func (s *StreakService) GetUserStreaks(ctx context.Context, userID string) ([]*models.Streak, error) {
	stored, err := s.streaks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*models.Streak, len(stored))
	for _, st := range stored {
		byType[st.StreakType] = st
	}

	result := make([]*models.Streak, 0, len(models.StreakTypes))
	for _, streakType := range models.StreakTypes {
		if st, ok := byType[streakType]; ok {
			result = append(result, st)
			continue
		}
		result = append(result, &models.Streak{
			UserID:     userID,
			StreakType: streakType,
		})
	}
	return result, nil
}

// SweepInactive deactivates streaks idle for more than the given number of
// days and zeroes their current counts. Best counts survive.
func (s *StreakService) SweepInactive(ctx context.Context, idleDays int) (int64, error) {
	cutoff := dayUTC(time.Now()).AddDate(0, 0, -idleDays)
	swept, err := s.streaks.DeactivateStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping stale streaks: %w", err)
	}
	if swept > 0 {
		slog.Info("Stale streaks deactivated",
			slog.String("type", "db"),
			slog.Int64("count", swept),
			slog.Int("idle_days", idleDays))
	}
	return swept, nil
}
