package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acodelab/backend/acodelab/database/models"
)

func TestAchievementService_Evaluate(t *testing.T) {
	s := &AchievementService{}

	stats := &UserStats{
		QuestionsCreated:      3,
		AnswersCreated:        12,
		AcceptedAnswers:       2,
		TotalUpvotes:          40,
		PCPoints:              800,
		PConPoints:            150,
		Followers:             30,
		Following:             10,
		DaysSinceRegistration: 400,
		LeaderboardPosition:   4,
		Streaks:               map[string]int64{models.StreakDailyLogin: 8},
	}

	tests := []struct {
		name     string
		criteria models.Criteria
		want     bool
	}{
		{
			name:     "count met",
			criteria: models.Criteria{Kind: models.CriteriaCount, TargetValue: 10, TargetField: "answers_created"},
			want:     true,
		},
		{
			name:     "count short",
			criteria: models.Criteria{Kind: models.CriteriaCount, TargetValue: 10, TargetField: "accepted_answers"},
			want:     false,
		},
		{
			name:     "points short",
			criteria: models.Criteria{Kind: models.CriteriaPoints, TargetValue: 1000, TargetField: "pc_points"},
			want:     false,
		},
		{
			name:     "streak met",
			criteria: models.Criteria{Kind: models.CriteriaStreak, TargetValue: 7, TargetField: models.StreakDailyLogin},
			want:     true,
		},
		{
			name:     "streak of unknown type",
			criteria: models.Criteria{Kind: models.CriteriaStreak, TargetValue: 1, TargetField: models.StreakWeeklyGoal},
			want:     false,
		},
		{
			name: "special requires every condition",
			criteria: models.Criteria{
				Kind:        models.CriteriaSpecial,
				TargetValue: 25,
				AdditionalConditions: map[string]int64{
					"followers": 25,
					"following": 25,
				},
			},
			want: false,
		},
		{
			name: "special with all conditions met",
			criteria: models.Criteria{
				Kind:        models.CriteriaSpecial,
				TargetValue: 25,
				AdditionalConditions: map[string]int64{
					"followers": 25,
					"following": 10,
				},
			},
			want: true,
		},
		{
			name:     "registration age",
			criteria: models.Criteria{Kind: models.CriteriaSpecial, TargetValue: 365, TargetField: models.SpecialDaysSinceRegistration},
			want:     true,
		},
		{
			name:     "leaderboard position inside target",
			criteria: models.Criteria{Kind: models.CriteriaSpecial, TargetValue: 10, TargetField: models.SpecialLeaderboardPosition},
			want:     true,
		},
		{
			name:     "leaderboard position outside target",
			criteria: models.Criteria{Kind: models.CriteriaSpecial, TargetValue: 3, TargetField: models.SpecialLeaderboardPosition},
			want:     false,
		},
		{
			name:     "unknown field never matches",
			criteria: models.Criteria{Kind: models.CriteriaCount, TargetValue: 1, TargetField: "nonexistent"},
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.evaluate(tt.criteria, stats); got != tt.want {
				t.Errorf("evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAchievementService_OffBoardUserNeverPlacesByPosition(t *testing.T) {
	s := &AchievementService{}
	stats := &UserStats{LeaderboardPosition: 0}
	criteria := models.Criteria{Kind: models.CriteriaSpecial, TargetValue: 10, TargetField: models.SpecialLeaderboardPosition}
	if s.evaluate(criteria, stats) {
		t.Error("position 0 means off-board and must not satisfy a top-N criteria")
	}
}

type achievementFixture struct {
	points       *PointsService
	achievements *AchievementService
	achRepo      *fakeAchievementRepo
	users        *fakeUserRepo
	ledger       *fakePointsRepo
	content      *fakeContentRepo
}

func newAchievementFixture(t *testing.T, user *models.User) *achievementFixture {
	t.Helper()
	users := newFakeUserRepo(user)
	ledger := newFakePointsRepo(users)
	points := NewPointsService(DefaultConfig(), ledger, users)

	achRepo := &fakeAchievementRepo{}
	content := &fakeContentRepo{}
	achievements := NewAchievementService(achRepo, users, content, newFakeStreakRepo(), newFakeLeaderboardRepo(), points)
	if err := achievements.InitializeAchievements(context.Background()); err != nil {
		t.Fatalf("InitializeAchievements() error = %v", err)
	}
	return &achievementFixture{
		points:       points,
		achievements: achievements,
		achRepo:      achRepo,
		users:        users,
		ledger:       ledger,
		content:      content,
	}
}

func TestAchievementService_UnlockPaysRewardOnce(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})
	f.points.AddListener(f.achievements.Listener())

	// The user posts their first question.
	f.content.questions = append(f.content.questions, models.Question{ID: "q1", AuthorID: "u1", CreatedAt: time.Now()})
	if _, err := f.points.AwardPoints(ctx, "u1", models.ActionQuestionCreated, "q1", "question"); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}

	earned, err := f.achievements.GetUserAchievements(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserAchievements() error = %v", err)
	}
	if len(earned) != 1 || earned[0].AchievementID != "first_question" {
		t.Fatalf("earned = %+v, want exactly first_question", earned)
	}

	// 5 for the question plus the 5/2 catalog reward.
	u, _ := f.users.GetByID(ctx, "u1")
	if u.PCPoints != 10 || u.PConPoints != 2 {
		t.Errorf("balance = (%d, %d), want (10, 2)", u.PCPoints, u.PConPoints)
	}

	// One ledger row for the action, one for the reward.
	entries, _ := f.ledger.ListByUser(ctx, "u1", 50)
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	if entries[0].Action != models.ActionAchievementUnlocked {
		t.Errorf("newest action = %q, want %q", entries[0].Action, models.ActionAchievementUnlocked)
	}

	// A second identical award must not re-unlock or re-pay.
	f.content.questions = append(f.content.questions, models.Question{ID: "q2", AuthorID: "u1", CreatedAt: time.Now()})
	if _, err := f.points.AwardPoints(ctx, "u1", models.ActionQuestionCreated, "q2", "question"); err != nil {
		t.Fatalf("second AwardPoints() error = %v", err)
	}
	earned, _ = f.achievements.GetUserAchievements(ctx, "u1")
	if len(earned) != 1 {
		t.Errorf("earned after repeat = %d, want still 1", len(earned))
	}
}

func TestAchievementService_SnapshotToleratesFieldFailures(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})

	// The question count is down, but the answer the user just posted
	// must still unlock first_answer on a best-effort pass.
	f.content.questions = append(f.content.questions, models.Question{ID: "q1", AuthorID: "u1", CreatedAt: time.Now()})
	f.content.questionsErr = errors.New("content store offline")
	f.content.answers = append(f.content.answers, models.Answer{AuthorID: "u1", CreatedAt: time.Now()})

	unlocked, err := f.achievements.CheckAchievements(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckAchievements() error = %v", err)
	}
	ids := make(map[string]bool)
	for _, a := range unlocked {
		ids[a.ID] = true
	}
	if !ids["first_answer"] {
		t.Error("first_answer should unlock despite the failed question count")
	}
	if ids["first_question"] {
		t.Error("first_question must not unlock while its count defaults to zero")
	}

	// Once the count recovers, the pending unlock lands.
	f.content.questionsErr = nil
	unlocked, err = f.achievements.CheckAchievements(ctx, "u1")
	if err != nil {
		t.Fatalf("second CheckAchievements() error = %v", err)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "first_question" {
		t.Errorf("unlocked = %+v, want just first_question", unlocked)
	}
}

func TestAchievementService_RepeatableReEarnsPerTarget(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})
	f.achRepo.catalog = append(f.achRepo.catalog, &models.Achievement{
		ID:           "answer_marathon",
		Name:         "Maratona de Respostas",
		Category:     models.CategoryContributor,
		Rarity:       models.RarityRare,
		Criteria:     models.Criteria{Kind: models.CriteriaCount, TargetValue: 5, TargetField: "answers_created"},
		PointsReward: 5,
		IsRepeatable: true,
	})

	addAnswers := func(n int) {
		for i := 0; i < n; i++ {
			f.content.answers = append(f.content.answers, models.Answer{AuthorID: "u1", CreatedAt: time.Now()})
		}
	}
	marathonRows := func(t *testing.T) int {
		t.Helper()
		earned, err := f.achievements.GetUserAchievements(ctx, "u1")
		if err != nil {
			t.Fatalf("GetUserAchievements() error = %v", err)
		}
		var n int
		for _, ua := range earned {
			if ua.AchievementID == "answer_marathon" {
				n++
			}
		}
		return n
	}

	addAnswers(5)
	if _, err := f.achievements.CheckAchievements(ctx, "u1"); err != nil {
		t.Fatalf("CheckAchievements() error = %v", err)
	}
	if got := marathonRows(t); got != 1 {
		t.Fatalf("earned rows after 5 answers = %d, want 1", got)
	}

	// Re-checking with no further progress must not re-earn.
	if _, err := f.achievements.CheckAchievements(ctx, "u1"); err != nil {
		t.Fatalf("repeat CheckAchievements() error = %v", err)
	}
	if got := marathonRows(t); got != 1 {
		t.Fatalf("earned rows after re-check = %d, want still 1", got)
	}

	// A full extra target of answers earns it again.
	addAnswers(5)
	if _, err := f.achievements.CheckAchievements(ctx, "u1"); err != nil {
		t.Fatalf("third CheckAchievements() error = %v", err)
	}
	if got := marathonRows(t); got != 2 {
		t.Errorf("earned rows after 10 answers = %d, want 2", got)
	}
}

func TestAchievementService_Progress(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})

	// 5 accepted answers out of the 10 helpful_contributor needs.
	for i := 0; i < 5; i++ {
		f.content.answers = append(f.content.answers, models.Answer{AuthorID: "u1", IsAccepted: true, CreatedAt: time.Now()})
	}

	progress, err := f.achievements.GetUserAchievementProgress(ctx, "u1", ProgressFilters{Category: models.CategoryContributor})
	if err != nil {
		t.Fatalf("GetUserAchievementProgress() error = %v", err)
	}

	var helpful *models.AchievementProgress
	for _, p := range progress {
		if p.AchievementID == "helpful_contributor" {
			helpful = p
		}
	}
	if helpful == nil {
		t.Fatal("helpful_contributor missing from contributor listing")
	}
	if helpful.CurrentProgress != 5 || helpful.TargetProgress != 10 {
		t.Errorf("progress = %d/%d, want 5/10", helpful.CurrentProgress, helpful.TargetProgress)
	}
	if helpful.Percentage != 50 {
		t.Errorf("percentage = %v, want 50", helpful.Percentage)
	}
	if helpful.IsEarned {
		t.Error("helpful_contributor should not be earned yet")
	}
}

func TestAchievementService_ProgressFuzzySearch(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})

	progress, err := f.achievements.GetUserAchievementProgress(ctx, "u1", ProgressFilters{Query: "pergunta"})
	if err != nil {
		t.Fatalf("GetUserAchievementProgress() error = %v", err)
	}
	if len(progress) == 0 {
		t.Fatal("fuzzy query matched nothing")
	}
	found := false
	for _, p := range progress {
		if p.AchievementID == "first_question" {
			found = true
		}
	}
	if !found {
		t.Error("fuzzy query 'pergunta' should match Primeira Pergunta")
	}
}

func TestAchievementService_ProgressOrdersUnearnedFirst(t *testing.T) {
	ctx := context.Background()
	f := newAchievementFixture(t, &models.User{ID: "u1", Rank: "Iniciante", CreatedAt: time.Now()})

	f.content.questions = append(f.content.questions, models.Question{ID: "q1", AuthorID: "u1", CreatedAt: time.Now()})
	if _, err := f.achievements.CheckAchievements(ctx, "u1"); err != nil {
		t.Fatalf("CheckAchievements() error = %v", err)
	}

	progress, err := f.achievements.GetUserAchievementProgress(ctx, "u1", ProgressFilters{})
	if err != nil {
		t.Fatalf("GetUserAchievementProgress() error = %v", err)
	}
	seenEarned := false
	for _, p := range progress {
		if p.IsEarned {
			seenEarned = true
		} else if seenEarned {
			t.Fatal("unearned achievement listed after an earned one")
		}
	}
	if !seenEarned {
		t.Fatal("expected first_question to be earned")
	}
}
