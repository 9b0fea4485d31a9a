package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type BadgeRepository interface {
	Seed(ctx context.Context, badges []models.Badge) (int64, error)
	GetByID(ctx context.Context, badgeID string) (*models.Badge, error)
	GetCatalog(ctx context.Context) ([]*models.Badge, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserBadge, error)
	GetOwned(ctx context.Context, userID, badgeID string) (*models.UserBadge, error)
	BadgeIDsByUsers(ctx context.Context, userIDs []string) (map[string][]string, error)
	InsertOwned(ctx context.Context, ub *models.UserBadge) (bool, error)
	CountOwnedAll(ctx context.Context) (int64, error)
}

type badgeRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewBadgeRepository(db *bun.DB) BadgeRepository {
	return &badgeRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

// Seed inserts catalog entries that are not already present, leaving
// existing rows untouched.
func (r *badgeRepository) Seed(ctx context.Context, badges []models.Badge) (int64, error) {
	if len(badges) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	for i := range badges {
		if badges[i].CreatedAt.IsZero() {
			badges[i].CreatedAt = now
		}
	}

	res, err := r.db.NewInsert().
		Model(&badges).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("Seed", "badge", err)
	}
	inserted, _ := res.RowsAffected()
	return inserted, nil
}

func (r *badgeRepository) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	badge := new(models.Badge)
	err := r.db.NewSelect().
		Model(badge).
		Where("id = ?", badgeID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("GetByID", "badge", badgeID, err)
	}
	return badge, nil
}

func (r *badgeRepository) GetCatalog(ctx context.Context) ([]*models.Badge, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var badges []*models.Badge
	err := r.db.NewSelect().
		Model(&badges).
		OrderExpr("sort_order ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("GetCatalog", "badge", err)
	}
	return badges, nil
}

func (r *badgeRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserBadge, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var owned []*models.UserBadge
	err := r.db.NewSelect().
		Model(&owned).
		Relation("Badge").
		Where("ub.user_id = ?", userID).
		OrderExpr("ub.earned_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ListByUser", "user_badge", userID, err)
	}
	return owned, nil
}

func (r *badgeRepository) GetOwned(ctx context.Context, userID, badgeID string) (*models.UserBadge, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ub := new(models.UserBadge)
	err := r.db.NewSelect().
		Model(ub).
		Relation("Badge").
		Where("ub.user_id = ?", userID).
		Where("ub.badge_id = ?", badgeID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("GetOwned", "user_badge", userID, err)
	}
	return ub, nil
}

// BadgeIDsByUsers fetches badge ids for many users in one query, keyed by
// user id. The leaderboard generator decorates entries with it.
func (r *badgeRepository) BadgeIDsByUsers(ctx context.Context, userIDs []string) (map[string][]string, error) {
	if len(userIDs) == 0 {
		return map[string][]string{}, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.UserBadge
	err := r.db.NewSelect().
		Model(&rows).
		Column("user_id", "badge_id").
		Where("user_id IN (?)", bun.In(userIDs)).
		OrderExpr("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("BadgeIDsByUsers", "user_badge", err)
	}

	byUser := make(map[string][]string, len(userIDs))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.BadgeID)
	}
	return byUser, nil
}

// InsertOwned grants a badge. The unique index on (user_id, badge_id)
// turns a repeat grant into a zero-row insert, reported as false.
func (r *badgeRepository) InsertOwned(ctx context.Context, ub *models.UserBadge) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if ub.ID == "" {
		ub.ID = uuid.NewString()
	}
	if ub.EarnedAt.IsZero() {
		ub.EarnedAt = time.Now()
	}

	res, err := r.db.NewInsert().
		Model(ub).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("InsertOwned", "user_badge", ub.UserID, err)
	}
	inserted, _ := res.RowsAffected()
	return inserted > 0, nil
}

func (r *badgeRepository) CountOwnedAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.UserBadge)(nil)).
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("CountOwnedAll", "user_badge", err)
	}
	return int64(count), nil
}
