package tasks_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	deploymentstore "github.com/dalemusser/stratadash/internal/app/store/deployments"
	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/app/system/catalog"
	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/tasks"
	"go.uber.org/zap"
)

func TestEditorSessionReaperJob(t *testing.T) {
	ctx := context.Background()
	clock := &dashboard.FixedClock{T: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	mgr := editor.NewManager(editor.Deps{
		Gateway: dashboardstore.New(docstore.NewMemory(), zap.NewNop()),
		Clock:   clock,
	})
	s, err := mgr.Open(ctx, editor.ModeNew, "", dashboard.Input{Name: "idle"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	clock.Advance(2 * time.Hour)

	job := tasks.EditorSessionReaperJob(mgr, time.Hour, time.Minute, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != editor.StateClosed || mgr.Len() != 0 {
		t.Errorf("session state = %v, open sessions = %d; want closed, 0", s.State(), mgr.Len())
	}
}

func TestDeploymentReconcileJob(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	deployments := deploymentstore.New(mem, zap.NewNop())
	svc := catalog.New(dashboardstore.New(mem, zap.NewNop()), deployments, zap.NewNop())
	_ = deployments.Add(ctx, "gone")

	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.DeploymentReconcileJob(svc, zap.NewNop()))
	if err := runner.RunOnce(ctx, "deployment-reconcile"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	ids, _ := deployments.List(ctx)
	if !reflect.DeepEqual(ids, []string{}) {
		t.Errorf("deployments = %v, want []", ids)
	}
}
