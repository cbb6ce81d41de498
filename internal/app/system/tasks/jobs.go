// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SessionReaper closes idle editor sessions.
type SessionReaper interface {
	Reap(maxIdle time.Duration) int
}

// DeploymentReconciler drops deployments whose dashboard is gone.
type DeploymentReconciler interface {
	Reconcile(ctx context.Context) ([]string, error)
}

// EditorSessionReaperJob closes editor sessions untouched for maxIdle.
func EditorSessionReaperJob(sessions SessionReaper, maxIdle, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "editor-session-reaper",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := sessions.Reap(maxIdle); n > 0 {
				logger.Info("closed idle editor sessions",
					zap.Int("count", n),
					zap.Duration("max_idle", maxIdle))
			}
			return nil
		},
	}
}

// DeploymentReconcileJob removes deployed ids that point at deleted
// dashboards, e.g. left behind when a delete's cleanup step failed.
func DeploymentReconcileJob(deployments DeploymentReconciler, logger *zap.Logger) Job {
	return Job{
		Name:     "deployment-reconcile",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Reconcile(), logger, "deployment reconcile")
			defer cancel()
			removed, err := deployments.Reconcile(ctx)
			if err != nil {
				return err
			}
			if len(removed) > 0 {
				logger.Info("removed dangling deployments", zap.Strings("dashboard_ids", removed))
			}
			return nil
		},
	}
}
