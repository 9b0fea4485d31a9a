package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

// UserScore is one aggregated row of a windowed points query.
type UserScore struct {
	UserID string `bun:"user_id"`
	Score  int64  `bun:"score"`
}

// PointsTotals is a user's balance after an award.
type PointsTotals struct {
	PCPoints   int64
	PConPoints int64
}

type PointsRepository interface {
	Award(ctx context.Context, entry *models.PointsHistory) (*PointsTotals, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.PointsHistory, error)
	CountActionSince(ctx context.Context, userID, action string, since time.Time) (int64, error)
	SumDeltasInWindow(ctx context.Context, column string, start, end time.Time, limit int) ([]UserScore, error)
	TotalDistributed(ctx context.Context, column string) (int64, error)
	CountEntries(ctx context.Context) (int64, error)
}

type pointsRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewPointsRepository(db *bun.DB) PointsRepository {
	return &pointsRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

// Award applies the entry's deltas to the user's stored totals and appends
// the ledger row, atomically. Totals clamp at zero: a negative delta larger
// than the balance leaves the total at 0, and the recorded change still
// carries the requested delta, so the ledger shows what was asked for while
// the totals show what resulted. The returned totals are the post-award
// balance from the same UPDATE, so concurrent awards never observe each
// other half-applied.
func (r *pointsRepository) Award(ctx context.Context, entry *models.PointsHistory) (*PointsTotals, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	totals := new(PointsTotals)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var pc, pcon int64
		err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("pc_points = GREATEST(0, pc_points + ?)", entry.PCChange).
			Set("pcon_points = GREATEST(0, pcon_points + ?)", entry.PConChange).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", entry.UserID).
			Returning("pc_points, pcon_points").
			Scan(ctx, &pc, &pcon)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: "user", ID: entry.UserID}
			}
			return err
		}

		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		entry.PCTotal = pc
		entry.PConTotal = pcon

		if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
			return err
		}

		totals.PCPoints = pc
		totals.PConPoints = pcon
		return nil
	})
	if err != nil {
		var nfe *NotFoundError
		if errors.As(err, &nfe) {
			return nil, err
		}
		return nil, r.HandleErrorWithID("Award", "points_history", entry.UserID, err)
	}
	return totals, nil
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.PointsHistory, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.PointsHistory
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ListByUser", "points_history", userID, err)
	}
	return entries, nil
}

// CountActionSince counts ledger rows for one user and action at or after
// the given instant. The daily-login path uses it with the start of the
// current UTC day to keep the bonus once-per-day.
func (r *pointsRepository) CountActionSince(ctx context.Context, userID, action string, since time.Time) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.PointsHistory)(nil)).
		Where("user_id = ?", userID).
		Where("action = ?", action).
		Where("created_at >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("CountActionSince", "points_history", userID, err)
	}
	return int64(count), nil
}

// SumDeltasInWindow aggregates per-user ledger deltas over [start, end) on
// the given change column (pc_points_change or pcon_points_change),
// highest sums first with ties broken by user id. Users whose window sum
// is zero or negative are dropped.
func (r *pointsRepository) SumDeltasInWindow(ctx context.Context, column string, start, end time.Time, limit int) ([]UserScore, error) {
	if column != "pc_points_change" && column != "pcon_points_change" {
		return nil, &RepositoryError{
			Operation: "SumDeltasInWindow",
			Entity:    "points_history",
			Err:       errors.New("unknown change column: " + column),
		}
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var scores []UserScore
	err := r.db.NewSelect().
		Model((*models.PointsHistory)(nil)).
		ColumnExpr("user_id").
		ColumnExpr("SUM(?) AS score", bun.Ident(column)).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		GroupExpr("user_id").
		Having("SUM(?) > 0", bun.Ident(column)).
		OrderExpr("score DESC, user_id ASC").
		Limit(limit).
		Scan(ctx, &scores)
	if err != nil {
		return nil, r.HandleError("SumDeltasInWindow", "points_history", err)
	}
	return scores, nil
}

// TotalDistributed sums all positive deltas ever recorded on the given
// change column.
func (r *pointsRepository) TotalDistributed(ctx context.Context, column string) (int64, error) {
	if column != "pc_points_change" && column != "pcon_points_change" {
		return 0, &RepositoryError{
			Operation: "TotalDistributed",
			Entity:    "points_history",
			Err:       errors.New("unknown change column: " + column),
		}
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total sql.NullInt64
	err := r.db.NewSelect().
		Model((*models.PointsHistory)(nil)).
		ColumnExpr("SUM(?)", bun.Ident(column)).
		Where("? > 0", bun.Ident(column)).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleError("TotalDistributed", "points_history", err)
	}
	return total.Int64, nil
}

// CountEntries counts every ledger row ever written.
func (r *pointsRepository) CountEntries(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.PointsHistory)(nil)).
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("CountEntries", "points_history", err)
	}
	return int64(count), nil
}
