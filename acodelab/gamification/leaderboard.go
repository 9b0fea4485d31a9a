package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// allTimeEpoch is the period start reported for the all-time leaderboards.
var allTimeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

const leaderboardCacheSize = 16

// SnapshotArchiver stores a snapshot about to be replaced. The S3 archiver
// implements it; a nil archiver disables archiving.
type SnapshotArchiver interface {
	Archive(ctx context.Context, lb *models.Leaderboard) error
}

// LeaderboardService generates, caches and serves ranked snapshots.
// Generation for the same type is collapsed through a singleflight group,
// so a stampede of refresh calls runs one aggregation.
type LeaderboardService struct {
	cfg          Config
	users        repositories.UserRepository
	points       repositories.PointsRepository
	content      repositories.ContentRepository
	badges       repositories.BadgeRepository
	leaderboards repositories.LeaderboardRepository
	archiver     SnapshotArchiver

	group singleflight.Group
	cache *lru.Cache
}

func NewLeaderboardService(
	cfg Config,
	users repositories.UserRepository,
	points repositories.PointsRepository,
	content repositories.ContentRepository,
	badges repositories.BadgeRepository,
	leaderboards repositories.LeaderboardRepository,
	archiver SnapshotArchiver,
) *LeaderboardService {
	cache, _ := lru.New(leaderboardCacheSize)
	return &LeaderboardService{
		cfg:          cfg,
		users:        users,
		points:       points,
		content:      content,
		badges:       badges,
		leaderboards: leaderboards,
		archiver:     archiver,
		cache:        cache,
	}
}

// weeklyWindow returns the current Monday-to-Monday UTC week.
func weeklyWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	weekday := int(now.Weekday())
	// time.Weekday counts Sunday as 0; shift so Monday is the origin.
	offset := (weekday + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// monthlyWindow returns the current UTC calendar month.
func monthlyWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// window resolves the aggregation period for a leaderboard type. The
// activity boards rank lifetime counts, so they share the all-time window
// with the point-total boards.
func window(leaderboardType string, now time.Time) (time.Time, time.Time) {
	switch leaderboardType {
	case models.LeaderboardWeeklyPC, models.LeaderboardWeeklyPCon:
		return weeklyWindow(now)
	case models.LeaderboardMonthlyPC, models.LeaderboardMonthlyPCon:
		return monthlyWindow(now)
	default:
		return allTimeEpoch, now.UTC()
	}
}

// Generate recomputes the snapshot for one leaderboard type, archives the
// snapshot being replaced, stores the new one and returns it. Concurrent
// calls for the same type share one computation.
func (s *LeaderboardService) Generate(ctx context.Context, leaderboardType string) (*models.Leaderboard, error) {
	result, err, _ := s.group.Do(leaderboardType, func() (interface{}, error) {
		return s.generate(ctx, leaderboardType)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Leaderboard), nil
}

func (s *LeaderboardService) generate(ctx context.Context, leaderboardType string) (*models.Leaderboard, error) {
	started := time.Now()
	periodStart, periodEnd := window(leaderboardType, started)

	scores, err := s.scores(ctx, leaderboardType, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("scoring %s leaderboard: %w", leaderboardType, err)
	}

	entries, err := s.decorate(ctx, scores)
	if err != nil {
		return nil, fmt.Errorf("decorating %s leaderboard: %w", leaderboardType, err)
	}

	lb := &models.Leaderboard{
		LeaderboardType: leaderboardType,
		Entries:         entries,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		LastUpdated:     time.Now(),
	}

	if s.archiver != nil {
		if previous, err := s.leaderboards.Get(ctx, leaderboardType); err == nil {
			if err := s.archiver.Archive(ctx, previous); err != nil {
				slog.Warn("Snapshot archive failed",
					slog.String("type", "db"),
					slog.String("leaderboard_type", leaderboardType),
					slog.String("error", err.Error()))
			}
		} else if !repositories.IsNotFound(err) {
			return nil, err
		}
	}

	if err := s.leaderboards.Upsert(ctx, lb); err != nil {
		return nil, err
	}
	s.cache.Add(leaderboardType, lb)

	slog.Info("Leaderboard generated",
		slog.String("type", "db"),
		slog.String("leaderboard_type", leaderboardType),
		slog.Int("entries", len(entries)),
		slog.Duration("took", time.Since(started)))
	return lb, nil
}

// scores computes the raw (user, score) ranking for a type.
func (s *LeaderboardService) scores(ctx context.Context, leaderboardType string, start, end time.Time) ([]repositories.UserScore, error) {
	limit := s.cfg.LeaderboardSize
	switch leaderboardType {
	case models.LeaderboardWeeklyPC, models.LeaderboardMonthlyPC:
		return s.points.SumDeltasInWindow(ctx, "pc_points_change", start, end, limit)
	case models.LeaderboardWeeklyPCon, models.LeaderboardMonthlyPCon:
		return s.points.SumDeltasInWindow(ctx, "pcon_points_change", start, end, limit)
	case models.LeaderboardQuestionsAnswered:
		return s.content.TopAnswerers(ctx, start, end, false, limit)
	case models.LeaderboardBestAnswers:
		return s.content.TopAnswerers(ctx, start, end, true, limit)
	case models.LeaderboardAllTimePC, models.LeaderboardAllTimePCon:
		column := "pc_points"
		if leaderboardType == models.LeaderboardAllTimePCon {
			column = "pcon_points"
		}
		users, err := s.users.TopByPoints(ctx, column, limit)
		if err != nil {
			return nil, err
		}
		scores := make([]repositories.UserScore, 0, len(users))
		for _, u := range users {
			score := u.PCPoints
			if column == "pcon_points" {
				score = u.PConPoints
			}
			if score <= 0 {
				continue
			}
			scores = append(scores, repositories.UserScore{UserID: u.ID, Score: score})
		}
		return scores, nil
	default:
		return nil, fmt.Errorf("unknown leaderboard type: %s", leaderboardType)
	}
}

// decorate turns raw scores into display entries with usernames, ranks and
// badge ids, assigning 1-based positions in score order.
func (s *LeaderboardService) decorate(ctx context.Context, scores []repositories.UserScore) ([]models.LeaderboardEntry, error) {
	userIDs := make([]string, len(scores))
	for i, sc := range scores {
		userIDs[i] = sc.UserID
	}

	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	badgesByUser, err := s.badges.BadgeIDsByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for i, sc := range scores {
		entry := models.LeaderboardEntry{
			Position: i + 1,
			UserID:   sc.UserID,
			Score:    sc.Score,
			Badges:   badgesByUser[sc.UserID],
		}
		if entry.Badges == nil {
			entry.Badges = []string{}
		}
		if u, ok := byID[sc.UserID]; ok {
			entry.Username = u.Username
			entry.AvatarURL = u.AvatarURL
			entry.Rank = u.Rank
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Get serves the current snapshot for a type, preferring the in-process
// cache, then the stored row, and generating from scratch only when
// neither exists. A snapshot past its period end is regenerated.
func (s *LeaderboardService) Get(ctx context.Context, leaderboardType string) (*models.Leaderboard, error) {
	if cached, ok := s.cache.Get(leaderboardType); ok {
		lb := cached.(*models.Leaderboard)
		if time.Now().Before(lb.PeriodEnd) || isAllTime(leaderboardType) {
			return lb, nil
		}
	}

	lb, err := s.leaderboards.Get(ctx, leaderboardType)
	if err == nil && (isAllTime(leaderboardType) || time.Now().Before(lb.PeriodEnd)) {
		s.cache.Add(leaderboardType, lb)
		return lb, nil
	}
	if err != nil && !repositories.IsNotFound(err) {
		return nil, err
	}
	return s.Generate(ctx, leaderboardType)
}

func isAllTime(leaderboardType string) bool {
	return leaderboardType == models.LeaderboardAllTimePC || leaderboardType == models.LeaderboardAllTimePCon
}

// Position is a user's placement on one leaderboard.
type Position struct {
	LeaderboardType string `json:"leaderboard_type"`
	Position        int    `json:"position"`
	Score           int64  `json:"score"`
	TotalEntries    int    `json:"total_entries"`
}

// GetUserLeaderboardPosition reports where the user sits on the given
// leaderboard, or a zero position when they are not on it.
func (s *LeaderboardService) GetUserLeaderboardPosition(ctx context.Context, userID, leaderboardType string) (*Position, error) {
	lb, err := s.Get(ctx, leaderboardType)
	if err != nil {
		return nil, err
	}

	pos := &Position{
		LeaderboardType: leaderboardType,
		TotalEntries:    len(lb.Entries),
	}
	for _, entry := range lb.Entries {
		if entry.UserID == userID {
			pos.Position = entry.Position
			pos.Score = entry.Score
			break
		}
	}
	return pos, nil
}
