// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"fmt"

	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/gridlayout"
	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"go.uber.org/zap"
)

// widgetSeed is one widget of a demo dashboard. Widgets fill the grid left
// to right in order, so positions are not listed.
type widgetSeed struct {
	title  string
	t      models.WidgetType
	source models.DataSource
	field  string
	w, h   int
}

type dashboardSeed struct {
	name        string
	description string
	template    bool
	tags        []string
	widgets     []widgetSeed
}

var demoDashboards = []dashboardSeed{
	{
		name:        "Marketing Overview",
		description: "Traffic, conversions and campaign performance at a glance.",
		tags:        []string{"marketing"},
		widgets: []widgetSeed{
			{"Visitors", models.WidgetMetricCard, models.SourceTraffic, "visitors", 3, 2},
			{"Conversion rate", models.WidgetMetricCard, models.SourceConversions, "rate", 3, 2},
			{"Revenue", models.WidgetMetricCard, models.SourceRevenue, "total", 3, 2},
			{"Ad spend", models.WidgetMetricCard, models.SourceCampaigns, "spend", 3, 2},
			{"Traffic trend", models.WidgetAreaChart, models.SourceTraffic, "sessions", 8, 4},
			{"Traffic sources", models.WidgetPieChart, models.SourceTraffic, "channel", 4, 4},
			{"Signup funnel", models.WidgetFunnelChart, models.SourceConversions, "funnel", 6, 5},
			{"Campaigns", models.WidgetTable, models.SourceCampaigns, "performance", 6, 5},
		},
	},
	{
		name:        "SaaS Metrics",
		description: "Starting point for subscription businesses.",
		template:    true,
		tags:        []string{"saas", "template"},
		widgets: []widgetSeed{
			{"MRR", models.WidgetMetricCard, models.SourceSubscriptions, "mrr", 4, 2},
			{"Churn", models.WidgetGaugeChart, models.SourceSubscriptions, "churn", 4, 2},
			{"LTV : CAC", models.WidgetMetricCard, models.SourceUnitEconomics, "ltvCac", 4, 2},
			{"Revenue by plan", models.WidgetBarChart, models.SourceSubscriptions, "plan", 6, 4},
			{"Payment methods", models.WidgetPieChart, models.SourcePayments, "method", 6, 4},
			{"Revenue forecast", models.WidgetLineChart, models.SourcePredictions, "revenue", 12, 4},
		},
	},
}

// build turns a seed into a validated dashboard.
func build(seed dashboardSeed, clock dashboard.Clock, ids dashboard.IDGenerator) (models.SavedDashboard, error) {
	layout := models.DefaultLayout()
	cols := gridlayout.BaseColumns(layout)

	var items []gridlayout.Item
	widgets := make([]models.Widget, 0, len(seed.widgets))
	for _, ws := range seed.widgets {
		cfg, err := widgetconfig.NewConfig(ws.t, models.DataBinding{Source: ws.source, Field: ws.field}, models.ChartOptions{})
		if err != nil {
			return models.SavedDashboard{}, fmt.Errorf("demo widget %q: %w", ws.title, err)
		}
		pos := gridlayout.FirstFit(items, ws.w, ws.h, cols)
		w := models.Widget{ID: ids.NewID(), Title: ws.title, Config: cfg, Position: pos}
		items = append(items, gridlayout.Item{ID: w.ID, Position: pos})
		widgets = append(widgets, w)
	}

	return dashboard.Create(dashboard.Input{
		Name:        seed.name,
		Description: seed.description,
		Visibility:  models.VisibilityOrganization,
		IsTemplate:  seed.template,
		Widgets:     widgets,
		Layout:      layout,
		Tags:        seed.tags,
	}, clock, ids)
}

// SeedAll writes the demo dashboards when no dashboards are stored yet.
// Unreadable or corrupt storage is never seeded over: the problem is logged
// and seeding is skipped so the stored document stays as it is.
func SeedAll(ctx context.Context, store *dashboardstore.Store, clock dashboard.Clock, ids dashboard.IDGenerator, logger *zap.Logger) error {
	existing, err := store.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("dashboards unreadable, skipping demo seed", zap.Error(err))
		return nil
	}
	if len(existing) > 0 {
		logger.Debug("dashboards present, skipping demo seed", zap.Int("count", len(existing)))
		return nil
	}

	for _, seed := range demoDashboards {
		d, err := build(seed, clock, ids)
		if err != nil {
			return err
		}
		if err := store.Upsert(ctx, d); err != nil {
			logger.Error("failed to seed dashboard",
				zap.String("name", seed.name),
				zap.Error(err))
			return err
		}
		logger.Info("seeded demo dashboard",
			zap.String("name", d.Name),
			zap.String("dashboard_id", d.ID),
			zap.Int("widgets", d.WidgetCount))
	}
	return nil
}
