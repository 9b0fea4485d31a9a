package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

// ContentRepository runs read-only aggregations over the Q&A tables the
// collaborator service owns. Nothing here ever writes to them.
type ContentRepository interface {
	CountQuestions(ctx context.Context, userID string) (int64, error)
	CountAnswers(ctx context.Context, userID string) (int64, error)
	CountAcceptedAnswers(ctx context.Context, userID string) (int64, error)
	CountUpvotesReceived(ctx context.Context, userID string) (int64, error)
	TopAnswerers(ctx context.Context, start, end time.Time, acceptedOnly bool, limit int) ([]UserScore, error)
}

type contentRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewContentRepository(db *bun.DB) ContentRepository {
	return &contentRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *contentRepository) CountQuestions(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Question)(nil)).
		Where("author_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("CountQuestions", "question", userID, err)
	}
	return int64(count), nil
}

func (r *contentRepository) CountAnswers(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Answer)(nil)).
		Where("author_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("CountAnswers", "answer", userID, err)
	}
	return int64(count), nil
}

func (r *contentRepository) CountAcceptedAnswers(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Answer)(nil)).
		Where("author_id = ?", userID).
		Where("is_accepted").
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("CountAcceptedAnswers", "answer", userID, err)
	}
	return int64(count), nil
}

func (r *contentRepository) CountUpvotesReceived(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.Vote)(nil)).
		Where("target_author_id = ?", userID).
		Where("vote_type = ?", models.VoteUp).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("CountUpvotesReceived", "vote", userID, err)
	}
	return int64(count), nil
}

// TopAnswerers groups answers created in [start, end) by author, highest
// counts first with ties broken by author id. With acceptedOnly set, only
// accepted answers count.
func (r *contentRepository) TopAnswerers(ctx context.Context, start, end time.Time, acceptedOnly bool, limit int) ([]UserScore, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var scores []UserScore
	q := r.db.NewSelect().
		Model((*models.Answer)(nil)).
		ColumnExpr("author_id AS user_id").
		ColumnExpr("COUNT(*) AS score").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		GroupExpr("author_id").
		OrderExpr("score DESC, author_id ASC").
		Limit(limit)
	if acceptedOnly {
		q = q.Where("is_accepted")
	}
	if err := q.Scan(ctx, &scores); err != nil {
		return nil, r.HandleError("TopAnswerers", "answer", err)
	}
	return scores, nil
}
