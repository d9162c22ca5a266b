// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are
// served.
//
// For this service the only startup work is the background task runner
// carrying the trash retention sweep. Returning a non-nil error aborts
// startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if appCfg.TrashRetention > 0 {
		taskRunner.Register(tasks.TrashRetentionJob(
			entry.New(deps.MongoDatabase),
			deps.Media,
			appCfg.TrashRetention,
			appCfg.TrashSweepInterval,
			logger,
		))
		logger.Info("trash retention enabled",
			zap.Duration("retention", appCfg.TrashRetention),
			zap.Duration("sweep_interval", appCfg.TrashSweepInterval))
	} else {
		logger.Info("trash retention disabled; trashed entries are kept until emptied")
	}

	taskRunner.Start()
}
