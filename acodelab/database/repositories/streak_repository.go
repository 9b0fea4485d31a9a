package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type StreakRepository interface {
	Get(ctx context.Context, userID, streakType string) (*models.Streak, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Streak, error)
	Mutate(ctx context.Context, userID, streakType string, fn func(*models.Streak) error) (*models.Streak, error)
	DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type streakRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewStreakRepository(db *bun.DB) StreakRepository {
	return &streakRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *streakRepository) Get(ctx context.Context, userID, streakType string) (*models.Streak, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	streak := new(models.Streak)
	err := r.db.NewSelect().
		Model(streak).
		Where("user_id = ?", userID).
		Where("streak_type = ?", streakType).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("Get", "streak", userID, err)
	}
	return streak, nil
}

func (r *streakRepository) ListByUser(ctx context.Context, userID string) ([]*models.Streak, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var streaks []*models.Streak
	err := r.db.NewSelect().
		Model(&streaks).
		Where("user_id = ?", userID).
		OrderExpr("streak_type ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ListByUser", "streak", userID, err)
	}
	return streaks, nil
}

// Mutate runs fn against the user's streak row under a row lock, creating
// the row first if it does not exist yet. Concurrent calls for the same
// (user, type) serialize on the lock, so fn always sees the latest state
// and the read-modify-write cannot lose updates. The updated row is
// returned.
func (r *streakRepository) Mutate(ctx context.Context, userID, streakType string, fn func(*models.Streak) error) (*models.Streak, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	streak := new(models.Streak)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		fresh := &models.Streak{
			ID:         uuid.NewString(),
			UserID:     userID,
			StreakType: streakType,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := tx.NewInsert().
			Model(fresh).
			On("CONFLICT (user_id, streak_type) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		if err := tx.NewSelect().
			Model(streak).
			Where("user_id = ?", userID).
			Where("streak_type = ?", streakType).
			For("UPDATE").
			Scan(ctx); err != nil {
			return err
		}

		if err := fn(streak); err != nil {
			return err
		}
		if streak.CurrentCount > streak.BestCount {
			streak.BestCount = streak.CurrentCount
		}
		streak.UpdatedAt = time.Now()

		_, err := tx.NewUpdate().
			Model(streak).
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, r.HandleErrorWithID("Mutate", "streak", userID, err)
	}
	return streak, nil
}

// DeactivateStale marks streaks inactive when their last activity
// predates the cutoff. Counts are untouched, so a returning user keeps
// their history until the next update resolves the gap.
func (r *streakRepository) DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Streak)(nil)).
		Set("is_active = FALSE").
		Set("updated_at = ?", time.Now()).
		Where("is_active").
		Where("last_activity_date < ?", olderThan).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("DeactivateStale", "streak", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
