package charts

import (
	"context"

	"github.com/dalemusser/stratadash/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel fetches in RenderAll.
const DefaultConcurrency = 8

// Renderer resolves widget data and builds views.
type Renderer struct {
	fetcher     Fetcher
	logger      *zap.Logger
	concurrency int
}

// NewRenderer creates a Renderer that fetches through f.
func NewRenderer(f Fetcher, logger *zap.Logger) *Renderer {
	return &Renderer{fetcher: f, logger: logger, concurrency: DefaultConcurrency}
}

// Render builds the view for one widget. A fetch failure becomes an error
// view rather than an error.
func (r *Renderer) Render(ctx context.Context, w models.Widget, tr models.TimeRange) View {
	v := For(w.Config.Type)
	if !v.NeedsData() {
		return v.Build(w, Data{})
	}
	b := w.Config.DataBinding
	d, err := r.fetcher.Fetch(ctx, b.Source, b.Field, tr)
	if err != nil {
		r.logger.Warn("widget data fetch failed",
			zap.String("widget_id", w.ID),
			zap.String("source", string(b.Source)),
			zap.String("field", b.Field),
			zap.Error(err))
		return ErrorView(w, err)
	}
	return v.Build(w, d)
}

// RenderAll renders every widget concurrently and returns the views in
// widget order. It only fails when ctx is cancelled.
func (r *Renderer) RenderAll(ctx context.Context, widgets []models.Widget, tr models.TimeRange) ([]View, error) {
	views := make([]View, len(widgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, w := range widgets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			views[i] = r.Render(gctx, w, tr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
