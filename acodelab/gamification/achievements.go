package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/acodelab/backend/acodelab/database"
	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// UserStats is a point-in-time statistics snapshot an achievement check
// evaluates against. It is assembled fresh per check and never persisted.
type UserStats struct {
	UserID string

	QuestionsCreated int64
	AnswersCreated   int64
	AcceptedAnswers  int64
	TotalUpvotes     int64

	PCPoints   int64
	PConPoints int64

	Followers int64
	Following int64

	DaysSinceRegistration int64
	LeaderboardPosition   int64

	Streaks map[string]int64
}

// Field resolves a criteria target field on the snapshot. Streak fields
// resolve through the Streaks map; unknown names report false.
func (st *UserStats) Field(name string) (int64, bool) {
	switch name {
	case "questions_created":
		return st.QuestionsCreated, true
	case "answers_created":
		return st.AnswersCreated, true
	case "accepted_answers":
		return st.AcceptedAnswers, true
	case "total_upvotes":
		return st.TotalUpvotes, true
	case "pc_points":
		return st.PCPoints, true
	case "pcon_points":
		return st.PConPoints, true
	case "followers":
		return st.Followers, true
	case "following":
		return st.Following, true
	case models.SpecialDaysSinceRegistration:
		return st.DaysSinceRegistration, true
	case models.SpecialLeaderboardPosition:
		return st.LeaderboardPosition, true
	}
	if count, ok := st.Streaks[name]; ok {
		return count, true
	}
	return 0, false
}

// ProgressFilters narrows the achievement progress listing.
type ProgressFilters struct {
	Category      string
	Rarity        string
	EarnedOnly    bool
	IncludeHidden bool
	// Query fuzzy-matches against name and description.
	Query string
}

// AchievementService evaluates criteria against user statistics and pays
// out unlocks through the ledger.
type AchievementService struct {
	achievements repositories.AchievementRepository
	users        repositories.UserRepository
	content      repositories.ContentRepository
	streaks      repositories.StreakRepository
	leaderboards repositories.LeaderboardRepository
	points       *PointsService
}

func NewAchievementService(
	achievements repositories.AchievementRepository,
	users repositories.UserRepository,
	content repositories.ContentRepository,
	streaks repositories.StreakRepository,
	leaderboards repositories.LeaderboardRepository,
	points *PointsService,
) *AchievementService {
	return &AchievementService{
		achievements: achievements,
		users:        users,
		content:      content,
		streaks:      streaks,
		leaderboards: leaderboards,
		points:       points,
	}
}

// InitializeAchievements seeds the stock catalog, inserting only entries
// that do not exist yet.
func (s *AchievementService) InitializeAchievements(ctx context.Context) error {
	inserted, err := s.achievements.Seed(ctx, database.AchievementCatalog())
	if err != nil {
		return fmt.Errorf("seeding achievements: %w", err)
	}
	if inserted > 0 {
		slog.Info("Achievement catalog seeded",
			slog.String("type", "db"),
			slog.Int64("inserted", inserted))
	}
	return nil
}

// Snapshot assembles the user's statistics. The content counts and streak
// reads are independent and fan out concurrently. Only the user load fails
// hard: a field whose aggregation errors is logged and left at zero, so it
// fails its criteria naturally instead of aborting the whole check.
func (s *AchievementService) Snapshot(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		UserID:     userID,
		PCPoints:   user.PCPoints,
		PConPoints: user.PConPoints,
		Followers:  int64(len(user.Followers)),
		Following:  int64(len(user.Following)),
		Streaks:    make(map[string]int64),
	}
	if !user.CreatedAt.IsZero() {
		stats.DaysSinceRegistration = int64(time.Since(user.CreatedAt).Hours() / 24)
	}

	var g errgroup.Group
	count := func(field string, dst *int64, fn func(context.Context, string) (int64, error)) func() error {
		return func() error {
			value, err := fn(ctx, userID)
			if err != nil {
				slog.Warn("Stats field unavailable, defaulting to zero",
					slog.String("type", "db"),
					slog.String("user_id", userID),
					slog.String("field", field),
					slog.String("error", err.Error()))
				return nil
			}
			*dst = value
			return nil
		}
	}
	g.Go(count("questions_created", &stats.QuestionsCreated, s.content.CountQuestions))
	g.Go(count("answers_created", &stats.AnswersCreated, s.content.CountAnswers))
	g.Go(count("accepted_answers", &stats.AcceptedAnswers, s.content.CountAcceptedAnswers))
	g.Go(count("total_upvotes", &stats.TotalUpvotes, s.content.CountUpvotesReceived))
	g.Go(func() error {
		streakRows, err := s.streaks.ListByUser(ctx, userID)
		if err != nil {
			slog.Warn("Streak counts unavailable for stats snapshot",
				slog.String("type", "db"),
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			return nil
		}
		for _, row := range streakRows {
			stats.Streaks[row.StreakType] = int64(row.CurrentCount)
		}
		return nil
	})
	_ = g.Wait()

	if lb, err := s.leaderboards.Get(ctx, models.LeaderboardMonthlyPC); err == nil {
		for _, entry := range lb.Entries {
			if entry.UserID == userID {
				stats.LeaderboardPosition = int64(entry.Position)
				break
			}
		}
	} else if !repositories.IsNotFound(err) {
		slog.Warn("Leaderboard position unavailable for stats snapshot",
			slog.String("type", "db"),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}

	return stats, nil
}

// evaluate reports whether the criteria hold against the snapshot.
func (s *AchievementService) evaluate(c models.Criteria, stats *UserStats) bool {
	switch c.Kind {
	case models.CriteriaCount, models.CriteriaPoints:
		value, ok := stats.Field(c.TargetField)
		return ok && value >= c.TargetValue
	case models.CriteriaStreak:
		return stats.Streaks[c.TargetField] >= c.TargetValue
	case models.CriteriaSpecial:
		if len(c.AdditionalConditions) > 0 {
			for field, minimum := range c.AdditionalConditions {
				value, ok := stats.Field(field)
				if !ok || value < minimum {
					return false
				}
			}
			return true
		}
		switch c.TargetField {
		case models.SpecialDaysSinceRegistration:
			return stats.DaysSinceRegistration >= c.TargetValue
		case models.SpecialLeaderboardPosition:
			return stats.LeaderboardPosition >= 1 && stats.LeaderboardPosition <= c.TargetValue
		}
		return false
	}
	return false
}

// progress reports how far along the snapshot is toward the criteria, for
// the advisory progress listing.
func (s *AchievementService) progress(c models.Criteria, stats *UserStats) int64 {
	switch c.Kind {
	case models.CriteriaCount, models.CriteriaPoints:
		value, _ := stats.Field(c.TargetField)
		return value
	case models.CriteriaStreak:
		return stats.Streaks[c.TargetField]
	case models.CriteriaSpecial:
		if len(c.AdditionalConditions) > 0 {
			// The least-satisfied condition is the progress.
			lowest := c.TargetValue
			first := true
			for field, minimum := range c.AdditionalConditions {
				if minimum == 0 {
					continue
				}
				value, _ := stats.Field(field)
				scaled := value * c.TargetValue / minimum
				if first || scaled < lowest {
					lowest = scaled
					first = false
				}
			}
			return lowest
		}
		switch c.TargetField {
		case models.SpecialDaysSinceRegistration:
			return stats.DaysSinceRegistration
		case models.SpecialLeaderboardPosition:
			if stats.LeaderboardPosition >= 1 && stats.LeaderboardPosition <= c.TargetValue {
				return c.TargetValue
			}
			return 0
		}
	}
	return 0
}

// CheckAchievements evaluates every unearned achievement for the user and
// unlocks those whose criteria hold, paying the catalog rewards. Returns
// the achievements unlocked by this call.
func (s *AchievementService) CheckAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	return s.checkAt(ctx, 0, userID)
}

func (s *AchievementService) checkAt(ctx context.Context, depth int, userID string) ([]*models.Achievement, error) {
	stats, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievements.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.EarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var unlocked []*models.Achievement
	for _, a := range catalog {
		last, already := earned[a.ID]
		if already && !a.IsRepeatable {
			continue
		}
		if !s.evaluate(a.Criteria, stats) {
			continue
		}
		record := a.Criteria.TargetValue
		if a.IsRepeatable {
			// Repeatables re-earn once per full target of further
			// progress past the previously recorded value.
			record = s.progress(a.Criteria, stats)
			if already && record < last.Progress+a.Criteria.TargetValue {
				continue
			}
		}

		inserted, err := s.achievements.InsertEarned(ctx, &models.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			Progress:      record,
			Repeatable:    a.IsRepeatable,
		})
		if err != nil {
			return unlocked, fmt.Errorf("unlocking %s for %s: %w", a.ID, userID, err)
		}
		if !inserted {
			// A concurrent check got there first; it pays the reward.
			continue
		}

		slog.Info("Achievement unlocked",
			slog.String("type", "award"),
			slog.String("user_id", userID),
			slog.String("achievement_id", a.ID),
			slog.String("rarity", a.Rarity))

		if a.PointsReward != 0 || a.PConReward != 0 {
			if _, err := s.points.awardAt(ctx, depth+1, userID,
				models.ActionAchievementUnlocked,
				a.PointsReward, a.PConReward,
				a.ID, "achievement"); err != nil {
				slog.Error("Achievement reward payout failed",
					slog.String("type", "award"),
					slog.String("user_id", userID),
					slog.String("achievement_id", a.ID),
					slog.String("error", err.Error()))
			}
		}
		unlocked = append(unlocked, a)
	}
	return unlocked, nil
}

// Listener returns the points hook that re-checks achievements after an
// award. It is depth-capped because reward payouts re-enter the ledger and
// an uncapped re-check could cascade unboundedly.
func (s *AchievementService) Listener() PointsListener {
	return DepthCapped(PointsListenerFunc(func(ctx context.Context, event PointsEvent) error {
		_, err := s.checkAt(ctx, event.Depth+1, event.UserID)
		return err
	}))
}

// GetUserAchievements returns the user's earned achievements, newest
// first, with catalog details attached.
func (s *AchievementService) GetUserAchievements(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	return s.achievements.ListEarned(ctx, userID)
}

// GetUserAchievementProgress returns the advisory progress view over the
// catalog, filtered and fuzzy-searched, with unearned achievements first
// and each group ordered by how close it is to completion. Hidden
// achievements only appear once earned unless IncludeHidden is set.
func (s *AchievementService) GetUserAchievementProgress(ctx context.Context, userID string, filters ProgressFilters) ([]*models.AchievementProgress, error) {
	stats, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.achievements.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.EarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Achievement, 0, len(catalog))
	for _, a := range catalog {
		_, isEarned := earned[a.ID]
		if filters.Category != "" && a.Category != filters.Category {
			continue
		}
		if filters.Rarity != "" && a.Rarity != filters.Rarity {
			continue
		}
		if filters.EarnedOnly && !isEarned {
			continue
		}
		if a.IsHidden && !isEarned && !filters.IncludeHidden {
			continue
		}
		candidates = append(candidates, a)
	}

	if filters.Query != "" {
		targets := make([]string, len(candidates))
		for i, a := range candidates {
			targets[i] = a.Name + " " + a.Description
		}
		matches := fuzzy.Find(filters.Query, targets)
		matched := make([]*models.Achievement, 0, len(matches))
		for _, m := range matches {
			matched = append(matched, candidates[m.Index])
		}
		candidates = matched
	}

	result := make([]*models.AchievementProgress, 0, len(candidates))
	for _, a := range candidates {
		p := &models.AchievementProgress{
			AchievementID:  a.ID,
			Achievement:    a,
			TargetProgress: a.Criteria.TargetValue,
		}
		if row, isEarned := earned[a.ID]; isEarned {
			p.IsEarned = true
			p.EarnedAt = row.EarnedAt
			p.CurrentProgress = a.Criteria.TargetValue
			p.Percentage = 100
		} else {
			current := s.progress(a.Criteria, stats)
			if current > a.Criteria.TargetValue {
				current = a.Criteria.TargetValue
			}
			if current < 0 {
				current = 0
			}
			p.CurrentProgress = current
			if a.Criteria.TargetValue > 0 {
				p.Percentage = float64(current) / float64(a.Criteria.TargetValue) * 100
			}
		}
		result = append(result, p)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsEarned != result[j].IsEarned {
			return !result[i].IsEarned
		}
		if result[i].Percentage != result[j].Percentage {
			return result[i].Percentage > result[j].Percentage
		}
		return result[i].Achievement.SortOrder < result[j].Achievement.SortOrder
	})
	return result, nil
}
