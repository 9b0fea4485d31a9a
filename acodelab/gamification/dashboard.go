package gamification

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// RankProgress describes where a user stands on the ladder and what the
// next tier still needs.
type RankProgress struct {
	Current  string `json:"current"`
	Level    int64  `json:"level"`
	Next     string `json:"next,omitempty"`
	PCNeed   int64  `json:"pc_needed,omitempty"`
	PConNeed int64  `json:"pcon_needed,omitempty"`
}

// Dashboard is the single-call profile view.
type Dashboard struct {
	User          *models.User              `json:"user"`
	RankProgress  RankProgress              `json:"rank_progress"`
	RecentHistory []*models.PointsHistory   `json:"recent_history"`
	Achievements  []*models.UserAchievement `json:"achievements"`
	Badges        []*models.UserBadge       `json:"badges"`
	Streaks       []*models.Streak          `json:"streaks"`
	Positions     map[string]*Position      `json:"positions"`
	Summary       *ReferralSummary          `json:"referral_summary"`

	// Goals are unearned achievements the user is already more than halfway
	// to, closest first.
	Goals []*models.AchievementProgress `json:"suggested_goals"`
	Stats *Stats                        `json:"community_stats"`
}

const (
	dashboardGoalCount     = 3
	dashboardGoalThreshold = 50.0
)

// DashboardService assembles the profile view from the other services in
// one fan-out.
type DashboardService struct {
	users        repositories.UserRepository
	points       *PointsService
	ranks        *RankService
	achievements *AchievementService
	badges       *BadgeService
	streaks      *StreakService
	leaderboards *LeaderboardService
	referrals    *ReferralService
	providers    StatsProviders
}

func NewDashboardService(
	users repositories.UserRepository,
	points *PointsService,
	ranks *RankService,
	achievements *AchievementService,
	badges *BadgeService,
	streaks *StreakService,
	leaderboards *LeaderboardService,
	referrals *ReferralService,
	providers StatsProviders,
) *DashboardService {
	return &DashboardService{
		users:        users,
		points:       points,
		ranks:        ranks,
		achievements: achievements,
		badges:       badges,
		streaks:      streaks,
		leaderboards: leaderboards,
		referrals:    referrals,
		providers:    providers,
	}
}

// rankProgress computes the ladder view for the given totals.
func (s *DashboardService) rankProgress(pc, pcon int64) RankProgress {
	current := s.ranks.Evaluate(pc, pcon)
	progress := RankProgress{
		Current: current.Name,
		Level:   s.ranks.Level(pc),
	}
	for _, tier := range s.ranks.cfg.RankTiers {
		if tier.MinPC > current.MinPC || tier.MinPCon > current.MinPCon {
			progress.Next = tier.Name
			if need := tier.MinPC - pc; need > 0 {
				progress.PCNeed = need
			}
			if need := tier.MinPCon - pcon; need > 0 {
				progress.PConNeed = need
			}
			break
		}
	}
	return progress
}

// GetUserDashboard loads the user and gathers every profile facet
// concurrently. The leaderboard positions read stored snapshots only; a
// missing snapshot shows as off-board instead of triggering generation
// inside a profile read.
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		User:         user,
		RankProgress: s.rankProgress(user.PCPoints, user.PConPoints),
		Positions:    make(map[string]*Position, len(models.LeaderboardTypes)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dash.RecentHistory, err = s.points.GetUserPointsHistory(gctx, userID, 10)
		return err
	})
	g.Go(func() (err error) {
		dash.Achievements, err = s.achievements.GetUserAchievements(gctx, userID)
		if err == nil && len(dash.Achievements) > 5 {
			dash.Achievements = dash.Achievements[:5]
		}
		return err
	})
	g.Go(func() (err error) {
		dash.Badges, err = s.badges.GetUserBadges(gctx, userID, BadgeFilters{})
		return err
	})
	g.Go(func() (err error) {
		dash.Streaks, err = s.streaks.GetUserStreaks(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		dash.Summary, err = s.referrals.GetReferralSummary(gctx, userID)
		return err
	})
	g.Go(func() error {
		progress, err := s.achievements.GetUserAchievementProgress(gctx, userID, ProgressFilters{})
		if err != nil {
			return err
		}
		for _, p := range progress {
			if p.IsEarned || p.Percentage <= dashboardGoalThreshold {
				continue
			}
			dash.Goals = append(dash.Goals, p)
			if len(dash.Goals) == dashboardGoalCount {
				break
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		dash.Stats, err = s.points.GetGamificationStats(gctx, s.providers)
		return err
	})

	positions := make([]*Position, len(models.LeaderboardTypes))
	for i, leaderboardType := range models.LeaderboardTypes {
		i, leaderboardType := i, leaderboardType
		g.Go(func() error {
			lb, err := s.leaderboards.leaderboards.Get(gctx, leaderboardType)
			if err != nil {
				if repositories.IsNotFound(err) {
					positions[i] = &Position{LeaderboardType: leaderboardType}
					return nil
				}
				return err
			}
			pos := &Position{LeaderboardType: leaderboardType, TotalEntries: len(lb.Entries)}
			for _, entry := range lb.Entries {
				if entry.UserID == userID {
					pos.Position = entry.Position
					pos.Score = entry.Score
					break
				}
			}
			positions[i] = pos
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assembling dashboard for %s: %w", userID, err)
	}
	for _, pos := range positions {
		dash.Positions[pos.LeaderboardType] = pos
	}
	return dash, nil
}
