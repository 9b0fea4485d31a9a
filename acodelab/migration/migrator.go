package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrator copies the legacy MongoDB data into Postgres. Every insert runs
// with ON CONFLICT DO NOTHING, so an interrupted run can simply be
// restarted; already-imported rows are counted as skipped.
type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int
	dryRun    bool

	stats ImportStats

	// Mongo collection names (overrideable)
	collNames map[string]string
}

func NewMigrator(pgDB *bun.DB, client *mongo.Client, dbName string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   client.Database(dbName),
		batchSize: 1000,
		stats: ImportStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"users":             "users",
			"points_history":    "points_history",
			"streaks":           "streaks",
			"user_achievements": "user_achievements",
			"user_badges":       "user_badges",
			"referral_rewards":  "referral_rewards",
		},
	}
}

// SetBatchSize overrides the default batch size for inserts
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetDryRun makes the run read and convert everything without writing.
func (m *Migrator) SetDryRun(v bool) { m.dryRun = v }

// SetCollectionName overrides a source collection name.
func (m *Migrator) SetCollectionName(kind, name string) {
	if name != "" {
		m.collNames[kind] = name
	}
}

// Stats returns the counters accumulated so far.
func (m *Migrator) Stats() ImportStats { return m.stats }

func (m *Migrator) table(name string) *TableStats {
	ts, ok := m.stats.Tables[name]
	if !ok {
		ts = &TableStats{}
		m.stats.Tables[name] = ts
	}
	return ts
}

// MigrateAll imports every collection. Users go first so the ledger and
// join tables never reference a user that has not landed yet.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", m.MigrateUsers},
		{"points_history", m.MigratePointsHistory},
		{"streaks", m.MigrateStreaks},
		{"user_achievements", m.MigrateUserAchievements},
		{"user_badges", m.MigrateUserBadges},
		{"referral_rewards", m.MigrateReferrals},
	}
	for _, step := range steps {
		slog.Info("Importing collection",
			slog.String("type", "migrate"),
			slog.String("collection", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("importing %s: %w", step.name, err)
		}
	}
	m.stats.EndTime = time.Now()
	m.logSummary()
	return nil
}

func (m *Migrator) logSummary() {
	for name, ts := range m.stats.Tables {
		slog.Info("Import summary",
			slog.String("type", "migrate"),
			slog.String("collection", name),
			slog.Int64("read", ts.Read),
			slog.Int64("inserted", ts.Inserted),
			slog.Int64("skipped", ts.Skipped),
			slog.Int64("failed", ts.Failed))
	}
	slog.Info("Import finished",
		slog.String("type", "migrate"),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}

// migrateCollection streams one Mongo collection through decode, convert
// and batched insert. decode parses one raw document into a model batch
// element, conflict names the unique columns ON CONFLICT ignores.
func migrateCollection[D any, M any](
	ctx context.Context,
	m *Migrator,
	kind string,
	conflict string,
	convert func(D) M,
) error {
	ts := m.table(kind)
	coll := m.mongoDB.Collection(m.collNames[kind])

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	batch := make([]M, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if m.dryRun {
			ts.Skipped += int64(len(batch))
			batch = batch[:0]
			return nil
		}
		res, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT " + conflict + " DO NOTHING").
			Exec(ctx)
		if err != nil {
			ts.Failed += int64(len(batch))
			return err
		}
		inserted, _ := res.RowsAffected()
		ts.Inserted += inserted
		ts.Skipped += int64(len(batch)) - inserted
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var doc D
		if err := cursor.Decode(&doc); err != nil {
			ts.Failed++
			slog.Warn("Undecodable document skipped",
				slog.String("type", "migrate"),
				slog.String("collection", kind),
				slog.String("error", err.Error()))
			continue
		}
		ts.Read++
		batch = append(batch, convert(doc))
		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	return flush()
}

func (m *Migrator) MigrateUsers(ctx context.Context) error {
	return migrateCollection(ctx, m, "users", "(id)", convertUser)
}

func (m *Migrator) MigratePointsHistory(ctx context.Context) error {
	return migrateCollection(ctx, m, "points_history", "(id)", convertPointsEntry)
}

func (m *Migrator) MigrateStreaks(ctx context.Context) error {
	return migrateCollection(ctx, m, "streaks", "(user_id, streak_type)", convertStreak)
}

func (m *Migrator) MigrateUserAchievements(ctx context.Context) error {
	return migrateCollection(ctx, m, "user_achievements", "(id)", convertUserAchievement)
}

func (m *Migrator) MigrateUserBadges(ctx context.Context) error {
	return migrateCollection(ctx, m, "user_badges", "(user_id, badge_id)", convertUserBadge)
}

func (m *Migrator) MigrateReferrals(ctx context.Context) error {
	return migrateCollection(ctx, m, "referral_rewards", "(referred_id, milestone)", convertReferral)
}
