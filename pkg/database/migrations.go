package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc struct {
		Version int `bson:"version"`
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err := m.db.Collection("migrations").FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return doc.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").InsertOne(ctx, bson.M{
		"version":    version,
		"applied_at": time.Now(),
	})
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "payments indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("payments").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{Keys: bson.D{{Key: "telegram_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
				})
				return err
			},
		},
		{
			Version:     2,
			Description: "users unique telegram id",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys:    bson.D{{Key: "telegram_id", Value: 1}},
					Options: options.Index().SetUnique(true),
				})
				return err
			},
		},
		{
			Version:     3,
			Description: "referral edges and stats indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				// A referred user appears in at most one edge.
				_, err := db.Collection("referrals").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "referred_telegram_id", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{Keys: bson.D{{Key: "referrer_telegram_id", Value: 1}, {Key: "created_at", Value: -1}}},
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("referral_stats").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "telegram_id", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{
						Keys:    bson.D{{Key: "referral_code", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
				})
				return err
			},
		},
		{
			Version:     4,
			Description: "daily usage and extraction indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("user_usage").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys:    bson.D{{Key: "telegram_id", Value: 1}, {Key: "date", Value: 1}},
					Options: options.Index().SetUnique(true),
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("extractions").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "extraction_id", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{Keys: bson.D{{Key: "telegram_id", Value: 1}, {Key: "timestamp", Value: -1}}},
				})
				return err
			},
		},
		{
			Version:     5,
			Description: "user configs unique user id",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("user_configs").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys:    bson.D{{Key: "user_id", Value: 1}},
					Options: options.Index().SetUnique(true),
				})
				return err
			},
		},
	}
}
