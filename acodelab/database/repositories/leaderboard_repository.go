package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type LeaderboardRepository interface {
	Get(ctx context.Context, leaderboardType string) (*models.Leaderboard, error)
	Upsert(ctx context.Context, lb *models.Leaderboard) error
}

type leaderboardRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewLeaderboardRepository(db *bun.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *leaderboardRepository) Get(ctx context.Context, leaderboardType string) (*models.Leaderboard, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	lb := new(models.Leaderboard)
	err := r.db.NewSelect().
		Model(lb).
		Where("leaderboard_type = ?", leaderboardType).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("Get", "leaderboard", leaderboardType, err)
	}
	return lb, nil
}

// Upsert replaces the stored snapshot for the leaderboard's type. Only one
// row per type ever exists.
func (r *leaderboardRepository) Upsert(ctx context.Context, lb *models.Leaderboard) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if lb.LastUpdated.IsZero() {
		lb.LastUpdated = time.Now()
	}

	_, err := r.db.NewInsert().
		Model(lb).
		On("CONFLICT (leaderboard_type) DO UPDATE").
		Set("entries = EXCLUDED.entries").
		Set("period_start = EXCLUDED.period_start").
		Set("period_end = EXCLUDED.period_end").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	return r.HandleErrorWithID("Upsert", "leaderboard", lb.LeaderboardType, err)
}
