package gamification

import (
	"context"
	"testing"
	"time"

	"github.com/acodelab/backend/acodelab/database/models"
)

func newDashboardFixture(t *testing.T) (*DashboardService, *fakeUserRepo, *fakeContentRepo) {
	t.Helper()

	users := newFakeUserRepo(&models.User{
		ID:         "u1",
		Username:   "ana",
		PCPoints:   120,
		PConPoints: 30,
		Rank:       "Colaborador",
		CreatedAt:  time.Now(),
	})
	pointsRepo := newFakePointsRepo(users)
	achRepo := &fakeAchievementRepo{}
	badgeRepo := &fakeBadgeRepo{}
	streakRepo := newFakeStreakRepo()
	lbRepo := newFakeLeaderboardRepo()
	content := &fakeContentRepo{}
	referralRepo := &fakeReferralRepo{}

	cfg := DefaultConfig()
	points := NewPointsService(cfg, pointsRepo, users)
	badges := NewBadgeService(badgeRepo)
	ranks := NewRankService(cfg, users, badges)
	achievements := NewAchievementService(achRepo, users, content, streakRepo, lbRepo, points)
	streaks := NewStreakService(cfg, streakRepo, points, badges, achievements)
	leaderboards := NewLeaderboardService(cfg, users, pointsRepo, content, badgeRepo, lbRepo, nil)
	referrals := NewReferralService(cfg, referralRepo, users, points)

	admin := NewAdminService(users, achievements, badges, leaderboards)
	if err := admin.SeedCatalogs(context.Background()); err != nil {
		t.Fatalf("seeding catalogs: %v", err)
	}

	providers := StatsProviders{
		Users:        users,
		Achievements: achRepo,
		Badges:       badgeRepo,
		Referrals:    referralRepo,
	}
	dash := NewDashboardService(users, points, ranks, achievements, badges, streaks, leaderboards, referrals, providers)
	return dash, users, content
}

func TestDashboard_RankProgress(t *testing.T) {
	svc, _, _ := newDashboardFixture(t)
	ctx := context.Background()

	dash, err := svc.GetUserDashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserDashboard: %v", err)
	}

	rp := dash.RankProgress
	if rp.Current != "Colaborador" {
		t.Errorf("Current = %q, want Colaborador", rp.Current)
	}
	if rp.Level != 1 {
		t.Errorf("Level = %d, want 1", rp.Level)
	}
	if rp.Next != "Especialista" {
		t.Errorf("Next = %q, want Especialista", rp.Next)
	}
	if rp.PCNeed != 30 || rp.PConNeed != 45 {
		t.Errorf("needs = (%d, %d), want (30, 45)", rp.PCNeed, rp.PConNeed)
	}
}

func TestDashboard_SuggestsNearlyCompleteGoals(t *testing.T) {
	svc, _, content := newDashboardFixture(t)
	ctx := context.Background()

	// Six accepted answers: first_answer sits at 100% and
	// helpful_contributor at 60%, both unearned.
	for i := 0; i < 6; i++ {
		content.answers = append(content.answers, models.Answer{
			AuthorID:   "u1",
			IsAccepted: true,
			CreatedAt:  time.Now(),
		})
	}

	dash, err := svc.GetUserDashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserDashboard: %v", err)
	}

	if len(dash.Goals) != 2 {
		t.Fatalf("goals = %d, want 2", len(dash.Goals))
	}
	if dash.Goals[0].AchievementID != "first_answer" {
		t.Errorf("goals[0] = %q, want first_answer", dash.Goals[0].AchievementID)
	}
	if dash.Goals[1].AchievementID != "helpful_contributor" {
		t.Errorf("goals[1] = %q, want helpful_contributor", dash.Goals[1].AchievementID)
	}
}

func TestDashboard_OffBoardPositionsAreZero(t *testing.T) {
	svc, _, _ := newDashboardFixture(t)
	ctx := context.Background()

	dash, err := svc.GetUserDashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserDashboard: %v", err)
	}

	if len(dash.Positions) != len(models.LeaderboardTypes) {
		t.Fatalf("positions = %d, want %d", len(dash.Positions), len(models.LeaderboardTypes))
	}
	for lbType, pos := range dash.Positions {
		if pos.Position != 0 {
			t.Errorf("position on %s = %d, want 0 (no snapshot)", lbType, pos.Position)
		}
	}
}

func TestDashboard_CommunityStats(t *testing.T) {
	svc, users, _ := newDashboardFixture(t)
	ctx := context.Background()

	users.Create(ctx, &models.User{ID: "u2", Username: "bia", CreatedAt: time.Now()})

	dash, err := svc.GetUserDashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserDashboard: %v", err)
	}
	if dash.Stats == nil {
		t.Fatal("Stats missing from dashboard")
	}
	if dash.Stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", dash.Stats.TotalUsers)
	}
}
