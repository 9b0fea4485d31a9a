package gamification

import (
	"context"
	"testing"

	"github.com/acodelab/backend/acodelab/database/repositories"
)

func TestBadgeService_AwardBadgeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewBadgeService(&fakeBadgeRepo{})
	if err := svc.InitializeBadges(ctx); err != nil {
		t.Fatalf("InitializeBadges() error = %v", err)
	}

	first, granted, err := svc.AwardBadge(ctx, "u1", "early_adopter", false)
	if err != nil {
		t.Fatalf("AwardBadge() error = %v", err)
	}
	if !granted {
		t.Fatal("first grant should report granted")
	}
	if first == nil || first.BadgeID != "early_adopter" {
		t.Fatalf("first grant row = %+v, want early_adopter", first)
	}

	repeat, granted, err := svc.AwardBadge(ctx, "u1", "early_adopter", false)
	if err != nil {
		t.Fatalf("second AwardBadge() error = %v", err)
	}
	if granted {
		t.Error("second grant should be a no-op")
	}
	// The duplicate grant hands back the original row, earned_at intact.
	if repeat == nil || repeat.ID != first.ID || !repeat.EarnedAt.Equal(first.EarnedAt) {
		t.Errorf("duplicate grant row = %+v, want the original %+v", repeat, first)
	}

	owned, _ := svc.GetUserBadges(ctx, "u1", BadgeFilters{})
	if len(owned) != 1 {
		t.Errorf("owned badges = %d, want 1", len(owned))
	}
}

func TestBadgeService_FeaturedFilter(t *testing.T) {
	ctx := context.Background()
	svc := NewBadgeService(&fakeBadgeRepo{})
	if err := svc.InitializeBadges(ctx); err != nil {
		t.Fatalf("InitializeBadges() error = %v", err)
	}

	if _, _, err := svc.AwardBadge(ctx, "u1", "early_adopter", true); err != nil {
		t.Fatalf("AwardBadge() error = %v", err)
	}
	if _, _, err := svc.AwardBadge(ctx, "u1", "question_master", false); err != nil {
		t.Fatalf("AwardBadge() error = %v", err)
	}

	featured, err := svc.GetUserBadges(ctx, "u1", BadgeFilters{FeaturedOnly: true})
	if err != nil {
		t.Fatalf("GetUserBadges() error = %v", err)
	}
	if len(featured) != 1 || featured[0].BadgeID != "early_adopter" {
		t.Errorf("featured badges = %+v, want just early_adopter", featured)
	}
}

func TestBadgeService_AwardUnknownBadge(t *testing.T) {
	svc := NewBadgeService(&fakeBadgeRepo{})
	_, _, err := svc.AwardBadge(context.Background(), "u1", "no_such_badge", false)
	if !repositories.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestBadgeService_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeBadgeRepo{}
	svc := NewBadgeService(repo)

	if err := svc.InitializeBadges(ctx); err != nil {
		t.Fatalf("InitializeBadges() error = %v", err)
	}
	catalog, _ := svc.GetCatalog(ctx)
	firstCount := len(catalog)
	if firstCount == 0 {
		t.Fatal("seed inserted nothing")
	}

	if err := svc.InitializeBadges(ctx); err != nil {
		t.Fatalf("second InitializeBadges() error = %v", err)
	}
	catalog, _ = svc.GetCatalog(ctx)
	if len(catalog) != firstCount {
		t.Errorf("catalog grew from %d to %d on reseed", firstCount, len(catalog))
	}
}
