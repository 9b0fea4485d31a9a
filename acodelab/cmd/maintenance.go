package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/acodelab/backend/acodelab/database/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the achievement and badge catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)
		// Setup already seeds; running the command stand-alone just
		// reports success explicitly.
		fmt.Println("catalogs seeded")
		return nil
	},
}

var recheckCmd = &cobra.Command{
	Use:   "recheck",
	Short: "Re-run the achievement engine for every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		checked, failed, err := app.Admin.RecheckAllAchievements(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("checked %d users, %d failed\n", checked, failed)
		return nil
	},
}

var leaderboardsCmd = &cobra.Command{
	Use:   "leaderboards [type]",
	Short: "Regenerate leaderboard snapshots",
	Long:  "Regenerates every leaderboard, or just the named type.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		if len(args) == 1 {
			lb, err := app.Leaderboards.Generate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d entries\n", lb.LeaderboardType, len(lb.Entries))
			return nil
		}
		if err := app.Admin.RegenerateAllLeaderboards(ctx); err != nil {
			return err
		}
		fmt.Printf("regenerated %d leaderboards\n", len(models.LeaderboardTypes))
		return nil
	},
}

var (
	sweepIdleDays int
	grantFeatured bool
)

var sweepStreaksCmd = &cobra.Command{
	Use:   "sweep-streaks",
	Short: "Deactivate streaks with no recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		swept, err := app.Streaks.SweepInactive(ctx, sweepIdleDays)
		if err != nil {
			return err
		}
		fmt.Printf("deactivated %d streaks\n", swept)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print community-wide gamification statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		stats, err := app.Points.GetGamificationStats(ctx, app.StatsProviders())
		if err != nil {
			return err
		}
		fmt.Printf("users:               %d\n", stats.TotalUsers)
		fmt.Printf("transactions:        %d\n", stats.TotalTransactions)
		fmt.Printf("pc distributed:      %d\n", stats.TotalPCDistributed)
		fmt.Printf("pcon distributed:    %d\n", stats.TotalPConDistributed)
		fmt.Printf("achievements earned: %d\n", stats.AchievementsEarned)
		fmt.Printf("badges awarded:      %d\n", stats.BadgesAwarded)
		fmt.Printf("active referrals:    %d\n", stats.ActiveReferrals)
		for i, u := range stats.TopPCUsers {
			fmt.Printf("top pc #%d:           %s (%d)\n", i+1, u.Username, u.PCPoints)
		}
		return nil
	},
}

var grantBadgeCmd = &cobra.Command{
	Use:   "grant-badge <user-id> <badge-id>",
	Short: "Manually grant a badge to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		granted, err := app.Admin.GrantBadge(ctx, args[0], args[1], grantFeatured)
		if err != nil {
			return err
		}
		if !granted {
			fmt.Println("already held")
			return nil
		}
		fmt.Println("granted")
		return nil
	},
}

func init() {
	sweepStreaksCmd.Flags().IntVar(&sweepIdleDays, "idle-days", 7, "deactivate streaks idle for at least this many days")
	grantBadgeCmd.Flags().BoolVar(&grantFeatured, "featured", false, "feature the badge on the user's profile")
	rootCmd.AddCommand(seedCmd, recheckCmd, leaderboardsCmd, sweepStreaksCmd, statsCmd, grantBadgeCmd)
}
