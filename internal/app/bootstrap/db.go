// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/droppic/internal/app/system/indexes"
	"github.com/dalemusser/droppic/internal/app/system/media"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and initializes the media backend.
//
// WAFFLE calls this after configuration is loaded but before
// EnsureSchema and Startup. Clients land in DBDeps for use by the
// later hooks and the handlers.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	var mediaStore media.Store
	switch appCfg.MediaBackend {
	case "imagekit":
		mediaStore, err = media.NewImageKit(media.ImageKitConfig{
			PrivateKey:  appCfg.ImageKitPrivateKey,
			URLEndpoint: appCfg.ImageKitURLEndpoint,
		}, logger)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize imagekit media backend: %w", err)
		}
		logger.Info("initialized imagekit media backend",
			zap.String("url_endpoint", appCfg.ImageKitURLEndpoint),
		)
	case "local", "":
		mediaStore, err = media.NewLocal(media.LocalConfig{
			BasePath: appCfg.MediaLocalPath,
			BaseURL:  appCfg.MediaLocalURL,
		}, logger)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize local media backend: %w", err)
		}
		logger.Info("initialized local media backend",
			zap.String("path", appCfg.MediaLocalPath),
			zap.String("url", appCfg.MediaLocalURL),
		)
	default:
		return DBDeps{}, fmt.Errorf("unknown media backend: %s", appCfg.MediaBackend)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Media:         mediaStore,
	}, nil
}

// EnsureSchema sets up indexes as needed.
//
// This runs after ConnectDB succeeds but before Startup and before the
// HTTP handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
