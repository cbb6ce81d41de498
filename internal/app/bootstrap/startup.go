// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/seeding"
	"github.com/dalemusser/stratadash/internal/app/system/tasks"
	"github.com/dalemusser/stratadash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It seeds demo dashboards when configured and starts the background jobs.
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	svc := deps.Services

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment",
			zap.Int("count", n),
			zap.Any("timeouts", timeouts.Current()))
	}

	if appCfg.SeedDemoDashboards {
		if err := seeding.SeedAll(ctx, svc.Dashboards, svc.Clock, dashboard.UUIDGenerator{}, logger); err != nil {
			logger.Error("failed to seed demo dashboards", zap.Error(err))
			return err
		}
	}

	startTaskRunner(svc, appCfg, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

func startTaskRunner(svc *Services, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)
	taskRunner.Register(tasks.EditorSessionReaperJob(svc.Sessions, appCfg.EditorIdleTimeout, appCfg.EditorReapInterval, logger))
	taskRunner.Register(tasks.DeploymentReconcileJob(svc.Catalog, logger))
	taskRunner.Start()
}
