package metricsource

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

func clock() *dashboard.FixedClock {
	return &dashboard.FixedClock{T: time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)}
}

func TestFetch_Deterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMock(clock())

	a, err := m.Fetch(ctx, models.SourceTraffic, "visits", models.TimeRange30D)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	b, _ := m.Fetch(ctx, models.SourceTraffic, "visits", models.TimeRange30D)
	if !reflect.DeepEqual(a, b) {
		t.Error("Fetch() is not deterministic for the same binding")
	}
	c, _ := m.Fetch(ctx, models.SourceTraffic, "sessions", models.TimeRange30D)
	if reflect.DeepEqual(a.Series[0].Points, c.Series[0].Points) {
		t.Error("different fields produced identical series")
	}
}

func TestFetch_Shapes(t *testing.T) {
	ctx := context.Background()
	m := NewMock(clock())
	tests := []struct {
		tr     models.TimeRange
		points int
		first  string
		last   string
	}{
		{models.TimeRange7D, 7, "2026-04-09", "2026-04-15"},
		{models.TimeRange30D, 30, "2026-03-17", "2026-04-15"},
		{models.TimeRange90D, 13, "2026-01-21", "2026-04-15"},
		{models.TimeRange12M, 12, "2025-05", "2026-04"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tr), func(t *testing.T) {
			d, err := m.Fetch(ctx, models.SourceRevenue, "mrr", tt.tr)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			pts := d.Series[0].Points
			if len(pts) != tt.points {
				t.Fatalf("points = %d, want %d", len(pts), tt.points)
			}
			if pts[0].Label != tt.first || pts[len(pts)-1].Label != tt.last {
				t.Errorf("labels %s..%s, want %s..%s", pts[0].Label, pts[len(pts)-1].Label, tt.first, tt.last)
			}
			if d.Value == nil || d.Previous == nil || len(d.Categories) == 0 || d.Matrix == nil || d.Table == nil {
				t.Errorf("Fetch() left a shape empty: %+v", d)
			}
			sum := 0.0
			for _, p := range pts {
				sum += p.Value
			}
			if diff := sum - *d.Value; diff > 0.01 || diff < -0.01 {
				t.Errorf("Value = %v, want series total %v", *d.Value, sum)
			}
		})
	}
}

func TestFetch_Failures(t *testing.T) {
	ctx := context.Background()
	m := NewMock(clock())

	if _, err := m.Fetch(ctx, "weather", "temp", models.TimeRange7D); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Fetch(unknown source) error = %v, want ErrUnknownSource", err)
	}

	boom := errors.New("upstream down")
	m.SetFailure(models.SourceSEO, boom)
	if _, err := m.Fetch(ctx, models.SourceSEO, "rank", models.TimeRange7D); !errors.Is(err, boom) {
		t.Errorf("Fetch() error = %v, want injected failure", err)
	}
	m.SetFailure(models.SourceSEO, nil)
	if _, err := m.Fetch(ctx, models.SourceSEO, "rank", models.TimeRange7D); err != nil {
		t.Errorf("Fetch() after clearing failure error = %v", err)
	}

	m.SetLatency(time.Hour)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Fetch(cctx, models.SourceSEO, "rank", models.TimeRange7D); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch(cancelled) error = %v, want context.Canceled", err)
	}
}
