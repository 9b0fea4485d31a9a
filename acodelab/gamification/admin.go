package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

const (
	recheckPageSize    = 500
	recheckConcurrency = 8
)

// AdminService bundles the maintenance operations the CLI exposes.
type AdminService struct {
	users        repositories.UserRepository
	achievements *AchievementService
	badges       *BadgeService
	leaderboards *LeaderboardService
}

func NewAdminService(
	users repositories.UserRepository,
	achievements *AchievementService,
	badges *BadgeService,
	leaderboards *LeaderboardService,
) *AdminService {
	return &AdminService{
		users:        users,
		achievements: achievements,
		badges:       badges,
		leaderboards: leaderboards,
	}
}

// SeedCatalogs inserts any missing achievement and badge catalog entries.
func (s *AdminService) SeedCatalogs(ctx context.Context) error {
	if err := s.achievements.InitializeAchievements(ctx); err != nil {
		return err
	}
	return s.badges.InitializeBadges(ctx)
}

// RecheckAllAchievements walks every user and runs a full achievement
// check, unlocking anything retroactively earned. Used after catalog
// changes. Checks run with bounded concurrency; per-user failures are
// logged and counted, not fatal, so one bad row cannot sink a full sweep.
func (s *AdminService) RecheckAllAchievements(ctx context.Context) (checked, failed int64, err error) {
	started := time.Now()

	afterID := ""
	for {
		ids, err := s.users.ListIDs(ctx, afterID, recheckPageSize)
		if err != nil {
			return checked, failed, fmt.Errorf("listing users: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(recheckConcurrency)
		results := make([]error, len(ids))
		for i, userID := range ids {
			i, userID := i, userID
			g.Go(func() error {
				_, err := s.achievements.CheckAchievements(gctx, userID)
				results[i] = err
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return checked, failed, err
		}

		for i, userID := range ids {
			checked++
			if results[i] != nil {
				failed++
				slog.Error("Achievement recheck failed",
					slog.String("type", "admin"),
					slog.String("user_id", userID),
					slog.String("error", results[i].Error()))
			}
		}
		if len(ids) < recheckPageSize {
			break
		}
	}

	slog.Info("Achievement recheck finished",
		slog.String("type", "admin"),
		slog.Int64("checked", checked),
		slog.Int64("failed", failed),
		slog.Duration("took", time.Since(started)))
	return checked, failed, nil
}

// RegenerateAllLeaderboards rebuilds every leaderboard type in order.
func (s *AdminService) RegenerateAllLeaderboards(ctx context.Context) error {
	started := time.Now()
	for _, leaderboardType := range models.LeaderboardTypes {
		if _, err := s.leaderboards.Generate(ctx, leaderboardType); err != nil {
			return fmt.Errorf("regenerating %s: %w", leaderboardType, err)
		}
	}
	slog.Info("Leaderboards regenerated",
		slog.String("type", "admin"),
		slog.Int("count", len(models.LeaderboardTypes)),
		slog.Duration("took", time.Since(started)))
	return nil
}

// GrantBadge manually grants a badge, for event and special badges with no
// automatic trigger.
func (s *AdminService) GrantBadge(ctx context.Context, userID, badgeID string, featured bool) (bool, error) {
	_, granted, err := s.badges.AwardBadge(ctx, userID, badgeID, featured)
	if err != nil {
		return false, err
	}
	slog.Info("Manual badge grant",
		slog.String("type", "admin"),
		slog.String("user_id", userID),
		slog.String("badge_id", badgeID),
		slog.Bool("granted", granted))
	return granted, nil
}
