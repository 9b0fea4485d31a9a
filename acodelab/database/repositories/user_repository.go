package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]*models.User, error)
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	SetRank(ctx context.Context, userID, rank string) error
	TopByPoints(ctx context.Context, column string, limit int) ([]*models.User, error)
	CountAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Rank == "" {
		user.Rank = "Iniciante"
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	return r.HandleErrorWithID("Create", "user", user.ID, err)
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("GetByID", "user", userID, err)
	}
	return user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, userIDs []string) ([]*models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var users []*models.User
	err := r.db.NewSelect().
		Model(&users).
		Where("id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("ListByIDs", "user", err)
	}
	return users, nil
}

// ListIDs pages through every user id in ascending order. Pass an empty
// afterID for the first page; a short page means the end was reached.
func (r *userRepository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var ids []string
	q := r.db.NewSelect().
		Model((*models.User)(nil)).
		Column("id").
		OrderExpr("id ASC").
		Limit(limit)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, r.HandleError("ListIDs", "user", err)
	}
	return ids, nil
}

func (r *userRepository) SetRank(ctx context.Context, userID, rank string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("rank = ?", rank).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("SetRank", "user", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "user", ID: userID}
	}
	return nil
}

// TopByPoints returns the highest-scoring users by the given points
// column, which must be either pc_points or pcon_points.
func (r *userRepository) TopByPoints(ctx context.Context, column string, limit int) ([]*models.User, error) {
	if column != "pc_points" && column != "pcon_points" {
		return nil, &RepositoryError{
			Operation: "TopByPoints",
			Entity:    "user",
			Err:       errors.New("unknown points column: " + column),
		}
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var users []*models.User
	err := r.db.NewSelect().
		Model(&users).
		OrderExpr("? DESC, id ASC", bun.Ident(column)).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("TopByPoints", "user", err)
	}
	return users, nil
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Count(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, r.HandleError("CountAll", "user", err)
	}
	return int64(count), nil
}
