package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type AchievementRepository interface {
	Seed(ctx context.Context, achievements []models.Achievement) (int64, error)
	GetByID(ctx context.Context, achievementID string) (*models.Achievement, error)
	GetCatalog(ctx context.Context) ([]*models.Achievement, error)
	ListEarned(ctx context.Context, userID string) ([]*models.UserAchievement, error)
	EarnedIDs(ctx context.Context, userID string) (map[string]*models.UserAchievement, error)
	InsertEarned(ctx context.Context, ua *models.UserAchievement) (bool, error)
	CountEarnedAll(ctx context.Context) (int64, error)
}

type achievementRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

// Seed inserts catalog entries that are not already present. Existing rows
// are left untouched so hand-tuned values survive restarts. Returns the
// number of rows actually inserted.
func (r *achievementRepository) Seed(ctx context.Context, achievements []models.Achievement) (int64, error) {
	if len(achievements) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	for i := range achievements {
		if achievements[i].CreatedAt.IsZero() {
			achievements[i].CreatedAt = now
		}
	}

	res, err := r.db.NewInsert().
		Model(&achievements).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("Seed", "achievement", err)
	}
	inserted, _ := res.RowsAffected()
	return inserted, nil
}

func (r *achievementRepository) GetByID(ctx context.Context, achievementID string) (*models.Achievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	achievement := new(models.Achievement)
	err := r.db.NewSelect().
		Model(achievement).
		Where("id = ?", achievementID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("GetByID", "achievement", achievementID, err)
	}
	return achievement, nil
}

func (r *achievementRepository) GetCatalog(ctx context.Context) ([]*models.Achievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var achievements []*models.Achievement
	err := r.db.NewSelect().
		Model(&achievements).
		OrderExpr("sort_order ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("GetCatalog", "achievement", err)
	}
	return achievements, nil
}

func (r *achievementRepository) ListEarned(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var earned []*models.UserAchievement
	err := r.db.NewSelect().
		Model(&earned).
		Relation("Achievement").
		Where("ua.user_id = ?", userID).
		Where("ua.is_earned").
		OrderExpr("ua.earned_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ListEarned", "user_achievement", userID, err)
	}
	return earned, nil
}

// EarnedIDs returns the user's earned rows keyed by achievement id. For
// repeatable achievements the most recent row wins.
func (r *achievementRepository) EarnedIDs(ctx context.Context, userID string) (map[string]*models.UserAchievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.UserAchievement
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("is_earned").
		OrderExpr("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("EarnedIDs", "user_achievement", userID, err)
	}

	earned := make(map[string]*models.UserAchievement, len(rows))
	for _, row := range rows {
		earned[row.AchievementID] = row
	}
	return earned, nil
}

// InsertEarned records one earned achievement. For non-repeatable
// achievements the partial unique index on (user_id, achievement_id)
// absorbs concurrent duplicates: the losing insert affects zero rows and
// InsertEarned reports false, so the caller knows not to pay the reward
// twice.
func (r *achievementRepository) InsertEarned(ctx context.Context, ua *models.UserAchievement) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if ua.ID == "" {
		ua.ID = uuid.NewString()
	}
	now := time.Now()
	if ua.CreatedAt.IsZero() {
		ua.CreatedAt = now
	}
	if ua.EarnedAt == nil {
		ua.EarnedAt = &now
	}
	ua.IsEarned = true

	q := r.db.NewInsert().Model(ua)
	if !ua.Repeatable {
		q = q.On("CONFLICT (user_id, achievement_id) WHERE NOT repeatable DO NOTHING")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("InsertEarned", "user_achievement", ua.UserID, err)
	}
	inserted, _ := res.RowsAffected()
	return inserted > 0, nil
}

func (r *achievementRepository) CountEarnedAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.UserAchievement)(nil)).
		Where("is_earned").
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("CountEarnedAll", "user_achievement", err)
	}
	return int64(count), nil
}
