package acodelab

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/acodelab/backend/acodelab/database"
	"github.com/acodelab/backend/acodelab/gamification"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := Config{Gamification: gamification.DefaultConfig()}
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log          LogConfig           `toml:"log"`
	DB           database.DBConfig   `toml:"db"`
	Gamification gamification.Config `toml:"gamification"`
	Spaces       SpacesConfig        `toml:"spaces"`
	Mongo        MongoConfig         `toml:"mongo"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type SpacesConfig struct {
	Key         string `toml:"key"`
	Secret      string `toml:"secret"`
	Region      string `toml:"region"`
	Bucket      string `toml:"bucket"`
	ArchiveRoot string `toml:"archive_root"`
}

// Enabled reports whether snapshot archiving is configured at all.
func (c SpacesConfig) Enabled() bool {
	return c.Key != "" && c.Bucket != ""
}

// MongoConfig points at the legacy database for the one-off import.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// applyDefaults fills in whatever the TOML file left out, so a minimal
// config with just DB credentials still runs with the stock award tables.
func (c *Config) applyDefaults() {
	defaults := gamification.DefaultConfig()
	g := &c.Gamification
	if len(g.PCPoints) == 0 {
		g.PCPoints = defaults.PCPoints
	}
	if len(g.PConPoints) == 0 {
		g.PConPoints = defaults.PConPoints
	}
	if len(g.RankTiers) == 0 {
		g.RankTiers = defaults.RankTiers
	}
	if len(g.StreakMilestones) == 0 {
		g.StreakMilestones = defaults.StreakMilestones
	}
	if len(g.ReferralBonuses) == 0 {
		g.ReferralBonuses = defaults.ReferralBonuses
	}
	if g.LeaderboardSize <= 0 {
		g.LeaderboardSize = defaults.LeaderboardSize
	}
}
