package gamification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sahilm/fuzzy"

	"github.com/acodelab/backend/acodelab/database"
	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// BadgeService manages the badge catalog and per-user grants.
type BadgeService struct {
	badges repositories.BadgeRepository
}

func NewBadgeService(badges repositories.BadgeRepository) *BadgeService {
	return &BadgeService{badges: badges}
}

// InitializeBadges seeds the stock catalog, inserting only entries that do
// not exist yet.
func (s *BadgeService) InitializeBadges(ctx context.Context) error {
	inserted, err := s.badges.Seed(ctx, database.BadgeCatalog())
	if err != nil {
		return fmt.Errorf("seeding badges: %w", err)
	}
	if inserted > 0 {
		slog.Info("Badge catalog seeded",
			slog.String("type", "db"),
			slog.Int64("inserted", inserted))
	}
	return nil
}

// AwardBadge grants a badge to a user, optionally marking it featured on
// their profile. Granting a badge the user already holds returns the
// existing row unchanged, reported as granted=false; an unknown badge id
// is an error.
func (s *BadgeService) AwardBadge(ctx context.Context, userID, badgeID string, featured bool) (*models.UserBadge, bool, error) {
	if _, err := s.badges.GetByID(ctx, badgeID); err != nil {
		return nil, false, err
	}

	ub := &models.UserBadge{
		UserID:     userID,
		BadgeID:    badgeID,
		IsFeatured: featured,
	}
	granted, err := s.badges.InsertOwned(ctx, ub)
	if err != nil {
		return nil, false, fmt.Errorf("granting badge %s to %s: %w", badgeID, userID, err)
	}
	if !granted {
		existing, err := s.badges.GetOwned(ctx, userID, badgeID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	slog.Info("Badge granted",
		slog.String("type", "award"),
		slog.String("user_id", userID),
		slog.String("badge_id", badgeID))
	return ub, true, nil
}

// BadgeFilters narrows a badge listing. Zero value lists everything.
type BadgeFilters struct {
	Type         string
	FeaturedOnly bool
	Query        string
}

// GetUserBadges returns the user's badges, newest first, with catalog
// details attached, narrowed by the filters.
func (s *BadgeService) GetUserBadges(ctx context.Context, userID string, filters BadgeFilters) ([]*models.UserBadge, error) {
	owned, err := s.badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := owned[:0]
	for _, ub := range owned {
		if filters.FeaturedOnly && !ub.IsFeatured {
			continue
		}
		if filters.Type != "" && (ub.Badge == nil || ub.Badge.BadgeType != filters.Type) {
			continue
		}
		kept = append(kept, ub)
	}

	if filters.Query == "" {
		return kept, nil
	}
	targets := make([]string, len(kept))
	for i, ub := range kept {
		if ub.Badge != nil {
			targets[i] = ub.Badge.Name + " " + ub.Badge.Description
		}
	}
	matched := make([]*models.UserBadge, 0, len(kept))
	for _, m := range fuzzy.Find(filters.Query, targets) {
		matched = append(matched, kept[m.Index])
	}
	return matched, nil
}

// GetCatalog returns the full badge catalog in display order.
func (s *BadgeService) GetCatalog(ctx context.Context) ([]*models.Badge, error) {
	return s.badges.GetCatalog(ctx)
}
