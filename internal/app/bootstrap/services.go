package bootstrap

import (
	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	deploymentstore "github.com/dalemusser/stratadash/internal/app/store/deployments"
	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/app/system/catalog"
	"github.com/dalemusser/stratadash/internal/app/system/charts"
	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/editor"
	"github.com/dalemusser/stratadash/internal/app/system/metricsource"
	"go.uber.org/zap"
)

// Services are the application components built on the document store.
type Services struct {
	Clock       dashboard.Clock
	Dashboards  *dashboardstore.Store
	Deployments *deploymentstore.Store
	Catalog     *catalog.Service
	Sessions    *editor.Manager
	Renderer    *charts.Renderer
}

// NewServices wires the stores, editor and renderer over docs.
func NewServices(docs docstore.Store, appCfg AppConfig, logger *zap.Logger) *Services {
	clock := dashboard.SystemClock{}
	dashboards := dashboardstore.New(docs, logger)
	deployments := deploymentstore.New(docs, logger)

	var delay editor.Delayer = editor.NoDelay{}
	if appCfg.SaveDelay > 0 {
		delay = editor.FixedDelay(appCfg.SaveDelay)
	}

	return &Services{
		Clock:       clock,
		Dashboards:  dashboards,
		Deployments: deployments,
		Catalog:     catalog.New(dashboards, deployments, logger).UseTransactions(docs),
		Sessions: editor.NewManager(editor.Deps{
			Gateway: dashboards,
			Clock:   clock,
			IDs:     dashboard.UUIDGenerator{},
			Delay:   delay,
			Logger:  logger,
		}),
		Renderer: charts.NewRenderer(metricsource.NewMock(clock), logger),
	}
}
