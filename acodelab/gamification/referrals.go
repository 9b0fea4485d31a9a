package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// ErrSelfReferral rejects a user referring themselves.
var ErrSelfReferral = errors.New("a user cannot refer themselves")

// ReferralSummary aggregates a referrer's payout history.
type ReferralSummary struct {
	ReferrerID    string                   `json:"referrer_id"`
	TotalReferred int64                    `json:"total_referred"`
	TotalPC       int64                    `json:"total_pc"`
	TotalPCon     int64                    `json:"total_pcon"`
	Rewards       []*models.ReferralReward `json:"rewards"`
}

// ReferralService records referrals and pays the referrer as the referred
// user hits milestones.
type ReferralService struct {
	cfg       Config
	referrals repositories.ReferralRepository
	users     repositories.UserRepository
	points    *PointsService
}

func NewReferralService(cfg Config, referrals repositories.ReferralRepository, users repositories.UserRepository, points *PointsService) *ReferralService {
	return &ReferralService{
		cfg:       cfg,
		referrals: referrals,
		users:     users,
		points:    points,
	}
}

// CreateReferral registers that referrer brought referred in, paying the
// signup bonus. A user can be referred once: a second registration for the
// same referred user is a conflict, whoever the referrer is.
func (s *ReferralService) CreateReferral(ctx context.Context, referrerID, referredID string) (*models.ReferralReward, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}
	if _, err := s.users.GetByID(ctx, referrerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, referredID); err != nil {
		return nil, err
	}

	bonus := s.cfg.ReferralBonuses[models.MilestoneSignup]
	reward := &models.ReferralReward{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Milestone:  models.MilestoneSignup,
		PCReward:   bonus.PCReward,
		PConReward: bonus.PConReward,
	}
	inserted, err := s.referrals.Insert(ctx, reward)
	if err != nil {
		return nil, fmt.Errorf("registering referral of %s: %w", referredID, err)
	}
	if !inserted {
		return nil, &repositories.ConflictError{Entity: "referral", Field: "referred_id", Value: referredID}
	}

	s.pay(ctx, reward)
	return reward, nil
}

// ReportMilestone records that the referred user reached a milestone and
// pays the referrer once. Unreferred users and already-paid milestones are
// quiet no-ops, so the Q&A layer can report unconditionally.
func (s *ReferralService) ReportMilestone(ctx context.Context, referredID, milestone string) error {
	bonus, known := s.cfg.ReferralBonuses[milestone]
	if !known || milestone == models.MilestoneSignup {
		return fmt.Errorf("unknown referral milestone: %s", milestone)
	}

	signup, err := s.referrals.GetSignup(ctx, referredID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil
		}
		return err
	}

	reward := &models.ReferralReward{
		ReferrerID: signup.ReferrerID,
		ReferredID: referredID,
		Milestone:  milestone,
		PCReward:   bonus.PCReward,
		PConReward: bonus.PConReward,
	}
	inserted, err := s.referrals.Insert(ctx, reward)
	if err != nil {
		return fmt.Errorf("recording %s milestone for %s: %w", milestone, referredID, err)
	}
	if !inserted {
		return nil
	}

	s.pay(ctx, reward)
	return nil
}

// pay credits the referrer. The milestone row is already durable, so a
// failed payout is logged for reconciliation rather than unwound.
func (s *ReferralService) pay(ctx context.Context, reward *models.ReferralReward) {
	if reward.PCReward == 0 && reward.PConReward == 0 {
		return
	}
	if _, err := s.points.AwardCustom(ctx, reward.ReferrerID,
		models.ActionReferralBonus,
		reward.PCReward, reward.PConReward,
		reward.ReferredID, "referral:"+reward.Milestone); err != nil {
		slog.Error("Referral payout failed",
			slog.String("type", "award"),
			slog.String("referrer_id", reward.ReferrerID),
			slog.String("referred_id", reward.ReferredID),
			slog.String("milestone", reward.Milestone),
			slog.String("error", err.Error()))
	}
}

// GetReferralSummary returns the referrer's payout history and totals.
func (s *ReferralService) GetReferralSummary(ctx context.Context, referrerID string) (*ReferralSummary, error) {
	rewards, err := s.referrals.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	summary := &ReferralSummary{ReferrerID: referrerID, Rewards: rewards}
	for _, r := range rewards {
		if r.Milestone == models.MilestoneSignup {
			summary.TotalReferred++
		}
		summary.TotalPC += r.PCReward
		summary.TotalPCon += r.PConReward
	}
	return summary, nil
}
