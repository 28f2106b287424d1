package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reset deletes all bowl data of the configured store - USE WITH CAUTION
func Reset(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	logger.Infof("⚠️  DANGER: This will delete ALL bowl data!")

	switch kind := config.GetStringOrDef("store.kind", store.KindFile); kind {
	case store.KindFile:
		path := config.GetStringOrDef("store.file.path", store.DefaultFilePath)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		logger.Info("Data file removed", "path", path)
		return nil

	case store.KindMongo:
		return dropMongo(ctx, config, logger)

	default:
		return fmt.Errorf("unknown store kind %q", kind)
	}
}

func dropMongo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	mongoURL := config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := config.GetStringOrDef("db.mongo.name", "bowltrack")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if err := result.Err(); err != nil {
		return fmt.Errorf("drop database %s: %w", dbName, err)
	}

	logger.Info("Database dropped", "database", dbName)
	return nil
}
