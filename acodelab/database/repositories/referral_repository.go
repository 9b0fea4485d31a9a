package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/acodelab/backend/acodelab/database/models"
)

type ReferralRepository interface {
	Insert(ctx context.Context, reward *models.ReferralReward) (bool, error)
	GetSignup(ctx context.Context, referredID string) (*models.ReferralReward, error)
	ListByReferrer(ctx context.Context, referrerID string) ([]*models.ReferralReward, error)
	CountAll(ctx context.Context) (int64, error)
}

type referralRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewReferralRepository(db *bun.DB) ReferralRepository {
	return &referralRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

// Insert records a milestone payout. The unique index on (referred_id,
// milestone) makes a repeat insert affect zero rows, reported as false, so
// each milestone pays out once per referred user no matter how often the
// collaborator reports it.
func (r *referralRepository) Insert(ctx context.Context, reward *models.ReferralReward) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if reward.ID == "" {
		reward.ID = uuid.NewString()
	}
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}

	res, err := r.db.NewInsert().
		Model(reward).
		On("CONFLICT (referred_id, milestone) DO NOTHING").
		Exec(ctx)
	if err != nil {
		// Some drivers surface the unique violation instead of
		// absorbing it; treat that the same as a zero-row insert.
		if strings.Contains(err.Error(), "duplicate key") {
			return false, nil
		}
		return false, r.HandleErrorWithID("Insert", "referral_reward", reward.ReferredID, err)
	}
	inserted, _ := res.RowsAffected()
	return inserted > 0, nil
}

// GetSignup finds the signup-milestone row for a referred user, which is
// how later milestones discover who the referrer was.
func (r *referralRepository) GetSignup(ctx context.Context, referredID string) (*models.ReferralReward, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	reward := new(models.ReferralReward)
	err := r.db.NewSelect().
		Model(reward).
		Where("referred_id = ?", referredID).
		Where("milestone = ?", models.MilestoneSignup).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("GetSignup", "referral_reward", referredID, err)
	}
	return reward, nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]*models.ReferralReward, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rewards []*models.ReferralReward
	err := r.db.NewSelect().
		Model(&rewards).
		Where("referrer_id = ?", referrerID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("ListByReferrer", "referral_reward", referrerID, err)
	}
	return rewards, nil
}

func (r *referralRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.ReferralReward)(nil)).
		Where("milestone = ?", models.MilestoneSignup).
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("CountAll", "referral_reward", err)
	}
	return int64(count), nil
}
