package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
	"github.com/acodelab/backend/acodelab/logger"
)

// AwardResult reports one processed award. Applied is false when the
// action maps to no deltas, which is a logged no-op rather than an error.
type AwardResult struct {
	Applied    bool
	PCChange   int64
	PConChange int64
	PCTotal    int64
	PConTotal  int64
}

// Stats is the community-wide gamification summary.
type Stats struct {
	TotalUsers           int64 `json:"total_users"`
	TotalTransactions    int64 `json:"total_transactions"`
	TotalPCDistributed   int64 `json:"total_pc_distributed"`
	TotalPConDistributed int64 `json:"total_pcon_distributed"`
	AchievementsEarned   int64 `json:"achievements_earned"`
	BadgesAwarded        int64 `json:"badges_awarded"`
	ActiveReferrals      int64 `json:"active_referrals"`

	TopPCUsers   []*models.User `json:"top_pc_users"`
	TopPConUsers []*models.User `json:"top_pcon_users"`
}

const statsTopUserCount = 5

// PointsService owns the ledger. Every point change in the system flows
// through it, whatever triggered the change.
type PointsService struct {
	cfg       Config
	points    repositories.PointsRepository
	users     repositories.UserRepository
	streaks   *StreakService
	listeners []PointsListener
}

func NewPointsService(cfg Config, points repositories.PointsRepository, users repositories.UserRepository) *PointsService {
	return &PointsService{
		cfg:    cfg,
		points: points,
		users:  users,
	}
}

// AddListener registers a post-award hook. Not safe to call once awards
// are flowing; register everything during wiring.
func (s *PointsService) AddListener(l PointsListener) {
	s.listeners = append(s.listeners, l)
}

// AttachStreaks links the streak tracker so daily logins advance the
// login streak.
func (s *PointsService) AttachStreaks(streaks *StreakService) {
	s.streaks = streaks
}

// AwardPoints applies the configured deltas for an action. An action
// absent from both award tables changes nothing and is logged, so a
// misconfigured caller shows up in the logs instead of silently minting
// zero-point ledger rows.
func (s *PointsService) AwardPoints(ctx context.Context, userID, action, targetID, targetType string) (*AwardResult, error) {
	pcDelta, pcOK := s.cfg.PCPoints[action]
	pconDelta, pconOK := s.cfg.PConPoints[action]
	if !pcOK && !pconOK {
		slog.Warn("Action maps to no point deltas",
			slog.String("type", "award"),
			slog.String("user_id", userID),
			slog.String("action", action))
		return &AwardResult{}, nil
	}
	return s.award(ctx, 0, userID, action, pcDelta, pconDelta, targetID, targetType)
}

// AwardCustom applies explicit deltas outside the action tables. Streak
// bonuses, achievement rewards and referral payouts use it.
func (s *PointsService) AwardCustom(ctx context.Context, userID, action string, pcDelta, pconDelta int64, targetID, targetType string) (*AwardResult, error) {
	return s.award(ctx, 0, userID, action, pcDelta, pconDelta, targetID, targetType)
}

// awardAt is AwardCustom at a given re-entry depth; listeners that pay
// rewards call it with their event's depth plus one.
func (s *PointsService) awardAt(ctx context.Context, depth int, userID, action string, pcDelta, pconDelta int64, targetID, targetType string) (*AwardResult, error) {
	return s.award(ctx, depth, userID, action, pcDelta, pconDelta, targetID, targetType)
}

func (s *PointsService) award(ctx context.Context, depth int, userID, action string, pcDelta, pconDelta int64, targetID, targetType string) (*AwardResult, error) {
	start := time.Now()

	entry := &models.PointsHistory{
		UserID:     userID,
		Action:     action,
		PCChange:   pcDelta,
		PConChange: pconDelta,
		TargetID:   targetID,
		TargetType: targetType,
	}
	totals, err := s.points.Award(ctx, entry)
	if err != nil {
		logger.LogAward(userID, action, time.Since(start), err)
		return nil, fmt.Errorf("awarding %s to %s: %w", action, userID, err)
	}
	logger.LogAward(userID, action, time.Since(start), nil)

	event := PointsEvent{
		UserID:     userID,
		Action:     action,
		PCChange:   pcDelta,
		PConChange: pconDelta,
		PCTotal:    totals.PCPoints,
		PConTotal:  totals.PConPoints,
		Depth:      depth,
		OccurredAt: entry.CreatedAt,
	}
	s.notify(ctx, event)

	return &AwardResult{
		Applied:    true,
		PCChange:   pcDelta,
		PConChange: pconDelta,
		PCTotal:    totals.PCPoints,
		PConTotal:  totals.PConPoints,
	}, nil
}

func (s *PointsService) notify(ctx context.Context, event PointsEvent) {
	for _, l := range s.listeners {
		if err := l.HandlePoints(ctx, event); err != nil {
			slog.Error("Points listener failed",
				slog.String("type", "award"),
				slog.String("user_id", event.UserID),
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
}

// AwardDailyLogin pays the daily login bonus at most once per UTC day and
// advances the login streak. Repeat calls on the same day return the
// result of a no-op award.
func (s *PointsService) AwardDailyLogin(ctx context.Context, userID string) (*AwardResult, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	count, err := s.points.CountActionSince(ctx, userID, models.ActionDailyLogin, dayStart)
	if err != nil {
		return nil, fmt.Errorf("checking daily login for %s: %w", userID, err)
	}
	if count > 0 {
		return &AwardResult{}, nil
	}

	result, err := s.AwardPoints(ctx, userID, models.ActionDailyLogin, "", "")
	if err != nil {
		return nil, err
	}

	if s.streaks != nil {
		if _, err := s.streaks.UpdateStreak(ctx, userID, models.StreakDailyLogin); err != nil {
			slog.Error("Login streak update failed",
				slog.String("type", "award"),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// GetUserPointsHistory returns the user's most recent ledger entries,
// newest first, capped at 50.
func (s *PointsService) GetUserPointsHistory(ctx context.Context, userID string, limit int) ([]*models.PointsHistory, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return s.points.ListByUser(ctx, userID, limit)
}

// StatsProviders holds the repositories the community stats aggregate
// over.
type StatsProviders struct {
	Users        repositories.UserRepository
	Achievements repositories.AchievementRepository
	Badges       repositories.BadgeRepository
	Referrals    repositories.ReferralRepository
}

// GetGamificationStats aggregates the community-wide counters and the
// top point holders. The queries are independent, so they fan out
// concurrently and the first failure cancels the rest.
func (s *PointsService) GetGamificationStats(ctx context.Context, providers StatsProviders) (*Stats, error) {
	stats := new(Stats)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = providers.Users.CountAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalTransactions, err = s.points.CountEntries(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TopPCUsers, err = providers.Users.TopByPoints(ctx, "pc_points", statsTopUserCount)
		return err
	})
	g.Go(func() (err error) {
		stats.TopPConUsers, err = providers.Users.TopByPoints(ctx, "pcon_points", statsTopUserCount)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalPCDistributed, err = s.points.TotalDistributed(ctx, "pc_points_change")
		return err
	})
	g.Go(func() (err error) {
		stats.TotalPConDistributed, err = s.points.TotalDistributed(ctx, "pcon_points_change")
		return err
	})
	g.Go(func() (err error) {
		stats.AchievementsEarned, err = providers.Achievements.CountEarnedAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.BadgesAwarded, err = providers.Badges.CountOwnedAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveReferrals, err = providers.Referrals.CountAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating gamification stats: %w", err)
	}
	return stats, nil
}
