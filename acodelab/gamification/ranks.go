package gamification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/acodelab/backend/acodelab/database/repositories"
)

// RankService evaluates and persists user ranks. Rank is a pure function
// of the two point totals; the stored column exists so listings and
// leaderboards can read it without recomputing.
type RankService struct {
	cfg    Config
	users  repositories.UserRepository
	badges *BadgeService
}

func NewRankService(cfg Config, users repositories.UserRepository, badges *BadgeService) *RankService {
	return &RankService{cfg: cfg, users: users, badges: badges}
}

// Evaluate returns the highest tier whose PC and PCon minimums both hold.
// Tiers are ordered ascending in the config; the first tier has zero
// minimums so there is always a match.
func (s *RankService) Evaluate(pc, pcon int64) RankTier {
	tier := s.cfg.RankTiers[0]
	for _, t := range s.cfg.RankTiers {
		if pc >= t.MinPC && pcon >= t.MinPCon {
			tier = t
		}
	}
	return tier
}

// Level derives the numeric level from PC points, at least 1.
func (s *RankService) Level(pc int64) int64 {
	level := pc / 100
	if level < 1 {
		return 1
	}
	return level
}

// Sync re-evaluates a user's rank from the given totals and persists it if
// it changed, granting the tier's badge on promotion. Demotions persist
// too but never revoke badges.
func (s *RankService) Sync(ctx context.Context, userID string, pc, pcon int64, currentRank string) (RankTier, error) {
	tier := s.Evaluate(pc, pcon)
	if tier.Name == currentRank {
		return tier, nil
	}

	if err := s.users.SetRank(ctx, userID, tier.Name); err != nil {
		return tier, fmt.Errorf("updating rank for %s: %w", userID, err)
	}

	slog.Info("Rank changed",
		slog.String("type", "award"),
		slog.String("user_id", userID),
		slog.String("from", currentRank),
		slog.String("to", tier.Name))

	if tier.BadgeID != "" && s.badges != nil {
		if _, _, err := s.badges.AwardBadge(ctx, userID, tier.BadgeID, false); err != nil {
			slog.Error("Rank badge grant failed",
				slog.String("type", "award"),
				slog.String("user_id", userID),
				slog.String("badge_id", tier.BadgeID),
				slog.String("error", err.Error()))
		}
	}
	return tier, nil
}

// SyncFromStored loads the user and syncs their rank from the stored
// totals.
func (s *RankService) SyncFromStored(ctx context.Context, userID string) (RankTier, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return RankTier{}, err
	}
	return s.Sync(ctx, userID, user.PCPoints, user.PConPoints, user.Rank)
}

// Listener returns the points hook that keeps ranks in step with the
// ledger. Totals come straight off the event; the user row is read only
// for the currently stored rank. The hook is not depth-capped: a reward
// payout moves the totals too, and Sync writes at most a rank and a badge,
// never points, so it cannot recurse.
func (s *RankService) Listener() PointsListener {
	return PointsListenerFunc(func(ctx context.Context, event PointsEvent) error {
		user, err := s.users.GetByID(ctx, event.UserID)
		if err != nil {
			return err
		}
		_, err = s.Sync(ctx, event.UserID, event.PCTotal, event.PConTotal, user.Rank)
		return err
	})
}
