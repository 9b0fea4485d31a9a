package gamification

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/acodelab/backend/acodelab/database/models"
	"github.com/acodelab/backend/acodelab/database/repositories"
)

// In-memory repository fakes. They reproduce the documented repository
// contracts (clamping, conflict absorption, row locking semantics) closely
// enough for the service logic to be exercised without a database.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user", ID: userID}
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, userIDs []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListIDs(_ context.Context, afterID string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *fakeUserRepo) SetRank(_ context.Context, userID, rank string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return &repositories.NotFoundError{Entity: "user", ID: userID}
	}
	u.Rank = rank
	return nil
}

func (r *fakeUserRepo) TopByPoints(_ context.Context, column string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	score := func(u *models.User) int64 {
		if column == "pcon_points" {
			return u.PConPoints
		}
		return u.PCPoints
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if score(out[j]) > score(out[i]) || (score(out[j]) == score(out[i]) && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUserRepo) CountAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakePointsRepo struct {
	mu      sync.Mutex
	users   *fakeUserRepo
	entries []*models.PointsHistory
	nextID  int
}

func newFakePointsRepo(users *fakeUserRepo) *fakePointsRepo {
	return &fakePointsRepo{users: users}
}

func (r *fakePointsRepo) Award(_ context.Context, entry *models.PointsHistory) (*repositories.PointsTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	u, ok := r.users.users[entry.UserID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user", ID: entry.UserID}
	}
	u.PCPoints += entry.PCChange
	if u.PCPoints < 0 {
		u.PCPoints = 0
	}
	u.PConPoints += entry.PConChange
	if u.PConPoints < 0 {
		u.PConPoints = 0
	}

	r.nextID++
	entry.ID = strconv.Itoa(r.nextID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.PCTotal = u.PCPoints
	entry.PConTotal = u.PConPoints
	r.entries = append(r.entries, entry)

	return &repositories.PointsTotals{PCPoints: u.PCPoints, PConPoints: u.PConPoints}, nil
}

func (r *fakePointsRepo) ListByUser(_ context.Context, userID string, limit int) ([]*models.PointsHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PointsHistory
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakePointsRepo) CountActionSince(_ context.Context, userID, action string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if e.UserID == userID && e.Action == action && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakePointsRepo) SumDeltasInWindow(_ context.Context, column string, start, end time.Time, limit int) ([]repositories.UserScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]int64)
	for _, e := range r.entries {
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		delta := e.PCChange
		if column == "pcon_points_change" {
			delta = e.PConChange
		}
		sums[e.UserID] += delta
	}
	var out []repositories.UserScore
	for id, sum := range sums {
		if sum > 0 {
			out = append(out, repositories.UserScore{UserID: id, Score: sum})
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Score > out[i].Score || (out[j].Score == out[i].Score && out[j].UserID < out[i].UserID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePointsRepo) TotalDistributed(_ context.Context, column string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, e := range r.entries {
		delta := e.PCChange
		if column == "pcon_points_change" {
			delta = e.PConChange
		}
		if delta > 0 {
			total += delta
		}
	}
	return total, nil
}

func (r *fakePointsRepo) CountEntries(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

type fakeAchievementRepo struct {
	mu      sync.Mutex
	catalog []*models.Achievement
	earned  []*models.UserAchievement
	nextID  int
}

func (r *fakeAchievementRepo) Seed(_ context.Context, achievements []models.Achievement) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inserted int64
	for i := range achievements {
		exists := false
		for _, a := range r.catalog {
			if a.ID == achievements[i].ID {
				exists = true
				break
			}
		}
		if !exists {
			a := achievements[i]
			r.catalog = append(r.catalog, &a)
			inserted++
		}
	}
	return inserted, nil
}

func (r *fakeAchievementRepo) GetByID(_ context.Context, id string) (*models.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.catalog {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "achievement", ID: id}
}

func (r *fakeAchievementRepo) GetCatalog(context.Context) ([]*models.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Achievement(nil), r.catalog...), nil
}

func (r *fakeAchievementRepo) ListEarned(_ context.Context, userID string) ([]*models.UserAchievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.UserAchievement
	for _, ua := range r.earned {
		if ua.UserID == userID && ua.IsEarned {
			out = append(out, ua)
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) EarnedIDs(_ context.Context, userID string) (map[string]*models.UserAchievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*models.UserAchievement)
	for _, ua := range r.earned {
		if ua.UserID == userID && ua.IsEarned {
			out[ua.AchievementID] = ua
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) InsertEarned(_ context.Context, ua *models.UserAchievement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ua.Repeatable {
		for _, existing := range r.earned {
			if existing.UserID == ua.UserID && existing.AchievementID == ua.AchievementID && !existing.Repeatable {
				return false, nil
			}
		}
	}
	r.nextID++
	ua.ID = strconv.Itoa(r.nextID)
	now := time.Now()
	if ua.EarnedAt == nil {
		ua.EarnedAt = &now
	}
	ua.IsEarned = true
	r.earned = append(r.earned, ua)
	return true, nil
}

func (r *fakeAchievementRepo) CountEarnedAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.earned)), nil
}

type fakeBadgeRepo struct {
	mu      sync.Mutex
	catalog []*models.Badge
	owned   []*models.UserBadge
	nextID  int
}

func (r *fakeBadgeRepo) Seed(_ context.Context, badges []models.Badge) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inserted int64
	for i := range badges {
		exists := false
		for _, b := range r.catalog {
			if b.ID == badges[i].ID {
				exists = true
				break
			}
		}
		if !exists {
			b := badges[i]
			r.catalog = append(r.catalog, &b)
			inserted++
		}
	}
	return inserted, nil
}

func (r *fakeBadgeRepo) GetByID(_ context.Context, id string) (*models.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.catalog {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "badge", ID: id}
}

func (r *fakeBadgeRepo) GetCatalog(context.Context) ([]*models.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Badge(nil), r.catalog...), nil
}

func (r *fakeBadgeRepo) ListByUser(_ context.Context, userID string) ([]*models.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.UserBadge
	for _, ub := range r.owned {
		if ub.UserID == userID {
			out = append(out, ub)
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) GetOwned(_ context.Context, userID, badgeID string) (*models.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ub := range r.owned {
		if ub.UserID == userID && ub.BadgeID == badgeID {
			copied := *ub
			return &copied, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "user_badge", ID: userID}
}

func (r *fakeBadgeRepo) BadgeIDsByUsers(_ context.Context, userIDs []string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string)
	for _, id := range userIDs {
		for _, ub := range r.owned {
			if ub.UserID == id {
				out[id] = append(out[id], ub.BadgeID)
			}
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) InsertOwned(_ context.Context, ub *models.UserBadge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.owned {
		if existing.UserID == ub.UserID && existing.BadgeID == ub.BadgeID {
			return false, nil
		}
	}
	r.nextID++
	ub.ID = strconv.Itoa(r.nextID)
	if ub.EarnedAt.IsZero() {
		ub.EarnedAt = time.Now()
	}
	r.owned = append(r.owned, ub)
	return true, nil
}

func (r *fakeBadgeRepo) CountOwnedAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.owned)), nil
}

type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[string]*models.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*models.Streak)}
}

func (r *fakeStreakRepo) key(userID, streakType string) string {
	return userID + "/" + streakType
}

func (r *fakeStreakRepo) Get(_ context.Context, userID, streakType string) (*models.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.streaks[r.key(userID, streakType)]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "streak", ID: userID}
	}
	copied := *st
	return &copied, nil
}

func (r *fakeStreakRepo) ListByUser(_ context.Context, userID string) ([]*models.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Streak
	for _, st := range r.streaks {
		if st.UserID == userID {
			copied := *st
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeStreakRepo) Mutate(_ context.Context, userID, streakType string, fn func(*models.Streak) error) (*models.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(userID, streakType)
	st, ok := r.streaks[key]
	if !ok {
		st = &models.Streak{
			ID:         key,
			UserID:     userID,
			StreakType: streakType,
			IsActive:   true,
			CreatedAt:  time.Now(),
		}
		r.streaks[key] = st
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if st.CurrentCount > st.BestCount {
		st.BestCount = st.CurrentCount
	}
	st.UpdatedAt = time.Now()
	copied := *st
	return &copied, nil
}

func (r *fakeStreakRepo) DeactivateStale(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, st := range r.streaks {
		if st.IsActive && st.LastActivityDate.Before(olderThan) {
			st.IsActive = false
			n++
		}
	}
	return n, nil
}

type fakeLeaderboardRepo struct {
	mu     sync.Mutex
	boards map[string]*models.Leaderboard
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{boards: make(map[string]*models.Leaderboard)}
}

func (r *fakeLeaderboardRepo) Get(_ context.Context, leaderboardType string) (*models.Leaderboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lb, ok := r.boards[leaderboardType]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "leaderboard", ID: leaderboardType}
	}
	return lb, nil
}

func (r *fakeLeaderboardRepo) Upsert(_ context.Context, lb *models.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[lb.LeaderboardType] = lb
	return nil
}

type fakeContentRepo struct {
	questions []models.Question
	answers   []models.Answer
	votes     []models.Vote

	// questionsErr makes CountQuestions fail, for aggregation-failure
	// paths.
	questionsErr error
}

func (r *fakeContentRepo) CountQuestions(_ context.Context, userID string) (int64, error) {
	if r.questionsErr != nil {
		return 0, r.questionsErr
	}
	var n int64
	for _, q := range r.questions {
		if q.AuthorID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeContentRepo) CountAnswers(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, a := range r.answers {
		if a.AuthorID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeContentRepo) CountAcceptedAnswers(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, a := range r.answers {
		if a.AuthorID == userID && a.IsAccepted {
			n++
		}
	}
	return n, nil
}

func (r *fakeContentRepo) CountUpvotesReceived(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, v := range r.votes {
		if v.TargetAuthorID == userID && v.VoteType == models.VoteUp {
			n++
		}
	}
	return n, nil
}

func (r *fakeContentRepo) TopAnswerers(_ context.Context, start, end time.Time, acceptedOnly bool, limit int) ([]repositories.UserScore, error) {
	counts := make(map[string]int64)
	for _, a := range r.answers {
		if a.CreatedAt.Before(start) || !a.CreatedAt.Before(end) {
			continue
		}
		if acceptedOnly && !a.IsAccepted {
			continue
		}
		counts[a.AuthorID]++
	}
	var out []repositories.UserScore
	for id, n := range counts {
		out = append(out, repositories.UserScore{UserID: id, Score: n})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Score > out[i].Score || (out[j].Score == out[i].Score && out[j].UserID < out[i].UserID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeReferralRepo struct {
	mu      sync.Mutex
	rewards []*models.ReferralReward
	nextID  int
}

func (r *fakeReferralRepo) Insert(_ context.Context, reward *models.ReferralReward) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rewards {
		if existing.ReferredID == reward.ReferredID && existing.Milestone == reward.Milestone {
			return false, nil
		}
	}
	r.nextID++
	reward.ID = strconv.Itoa(r.nextID)
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}
	r.rewards = append(r.rewards, reward)
	return true, nil
}

func (r *fakeReferralRepo) GetSignup(_ context.Context, referredID string) (*models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reward := range r.rewards {
		if reward.ReferredID == referredID && reward.Milestone == models.MilestoneSignup {
			return reward, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "referral_reward", ID: referredID}
}

func (r *fakeReferralRepo) ListByReferrer(_ context.Context, referrerID string) ([]*models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReferralReward
	for _, reward := range r.rewards {
		if reward.ReferrerID == referrerID {
			out = append(out, reward)
		}
	}
	return out, nil
}

func (r *fakeReferralRepo) CountAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, reward := range r.rewards {
		if reward.Milestone == models.MilestoneSignup {
			n++
		}
	}
	return n, nil
}
