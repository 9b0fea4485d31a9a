package acodelab

import (
	"context"
	"log/slog"

	"github.com/acodelab/backend/acodelab/database"
	"github.com/acodelab/backend/acodelab/database/repositories"
	"github.com/acodelab/backend/acodelab/gamification"
	"github.com/acodelab/backend/acodelab/services"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App wires the repositories and services together. Everything hangs off
// it so the CLI and any embedding server share one assembly.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB *database.DB

	UserRepository        repositories.UserRepository
	PointsRepository      repositories.PointsRepository
	AchievementRepository repositories.AchievementRepository
	BadgeRepository       repositories.BadgeRepository
	StreakRepository      repositories.StreakRepository
	LeaderboardRepository repositories.LeaderboardRepository
	ReferralRepository    repositories.ReferralRepository
	ContentRepository     repositories.ContentRepository

	SpacesService *services.SpacesService

	Points       *gamification.PointsService
	Ranks        *gamification.RankService
	Achievements *gamification.AchievementService
	Badges       *gamification.BadgeService
	Streaks      *gamification.StreakService
	Leaderboards *gamification.LeaderboardService
	Referrals    *gamification.ReferralService
	Dashboard    *gamification.DashboardService
	Admin        *gamification.AdminService
}

// Setup connects to the database, initializes the schema and assembles
// the service graph.
func (a *App) Setup(ctx context.Context) error {
	db, err := database.New(ctx, a.Cfg.DB)
	if err != nil {
		return err
	}
	a.DB = db

	if err := db.InitializeSchema(ctx); err != nil {
		return err
	}

	bunDB := db.BunDB()
	a.UserRepository = repositories.NewUserRepository(bunDB)
	a.PointsRepository = repositories.NewPointsRepository(bunDB)
	a.AchievementRepository = repositories.NewAchievementRepository(bunDB)
	a.BadgeRepository = repositories.NewBadgeRepository(bunDB)
	a.StreakRepository = repositories.NewStreakRepository(bunDB)
	a.LeaderboardRepository = repositories.NewLeaderboardRepository(bunDB)
	a.ReferralRepository = repositories.NewReferralRepository(bunDB)
	a.ContentRepository = repositories.NewContentRepository(bunDB)

	if a.Cfg.Spaces.Enabled() {
		spaces, err := services.NewSpacesService(
			a.Cfg.Spaces.Key,
			a.Cfg.Spaces.Secret,
			a.Cfg.Spaces.Region,
			a.Cfg.Spaces.Bucket,
			a.Cfg.Spaces.ArchiveRoot,
		)
		if err != nil {
			return err
		}
		a.SpacesService = spaces
	}

	gcfg := a.Cfg.Gamification
	a.Points = gamification.NewPointsService(gcfg, a.PointsRepository, a.UserRepository)
	a.Badges = gamification.NewBadgeService(a.BadgeRepository)
	a.Ranks = gamification.NewRankService(gcfg, a.UserRepository, a.Badges)
	a.Achievements = gamification.NewAchievementService(
		a.AchievementRepository,
		a.UserRepository,
		a.ContentRepository,
		a.StreakRepository,
		a.LeaderboardRepository,
		a.Points,
	)
	a.Streaks = gamification.NewStreakService(gcfg, a.StreakRepository, a.Points, a.Badges, a.Achievements)

	var archiver gamification.SnapshotArchiver
	if a.SpacesService != nil {
		archiver = a.SpacesService
	}
	a.Leaderboards = gamification.NewLeaderboardService(
		gcfg,
		a.UserRepository,
		a.PointsRepository,
		a.ContentRepository,
		a.BadgeRepository,
		a.LeaderboardRepository,
		archiver,
	)
	a.Referrals = gamification.NewReferralService(gcfg, a.ReferralRepository, a.UserRepository, a.Points)
	a.Dashboard = gamification.NewDashboardService(
		a.UserRepository,
		a.Points,
		a.Ranks,
		a.Achievements,
		a.Badges,
		a.Streaks,
		a.Leaderboards,
		a.Referrals,
		a.StatsProviders(),
	)
	a.Admin = gamification.NewAdminService(a.UserRepository, a.Achievements, a.Badges, a.Leaderboards)

	// Awards ripple: every ledger entry re-syncs the rank and re-checks
	// achievements; daily logins advance the login streak.
	a.Points.AttachStreaks(a.Streaks)
	a.Points.AddListener(a.Ranks.Listener())
	a.Points.AddListener(a.Achievements.Listener())

	if err := a.Admin.SeedCatalogs(ctx); err != nil {
		return err
	}

	slog.Info("Gamification engine ready",
		slog.String("version", a.Version),
		slog.String("commit", a.Commit))
	return nil
}

// StatsProviders bundles the repositories the community stats read.
func (a *App) StatsProviders() gamification.StatsProviders {
	return gamification.StatsProviders{
		Users:        a.UserRepository,
		Achievements: a.AchievementRepository,
		Badges:       a.BadgeRepository,
		Referrals:    a.ReferralRepository,
	}
}

// Close releases the database.
func (a *App) Close(ctx context.Context) error {
	if a.DB != nil {
		a.DB.Close()
	}
	return nil
}
