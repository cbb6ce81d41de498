// Package metricsource provides the demo data behind widget bindings.
// Mock generates plausible, repeatable numbers for any source and field;
// the same binding and time range always yield the same data for a given day.
package metricsource

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/charts"
	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/domain/models"
)

// ErrUnknownSource is returned for a source outside the supported set.
var ErrUnknownSource = errors.New("unknown data source")

// scale is the typical magnitude of a daily value per source.
var scale = map[models.DataSource]float64{
	models.SourceTraffic:       12000,
	models.SourceSEO:           850,
	models.SourceConversions:   340,
	models.SourceRevenue:       48000,
	models.SourceSubscriptions: 2100,
	models.SourcePayments:      1600,
	models.SourceUnitEconomics: 120,
	models.SourceDemographics:  5000,
	models.SourceSegmentation:  3000,
	models.SourceCampaigns:     900,
	models.SourcePredictions:   15000,
}

var categories = map[models.DataSource][]string{
	models.SourceTraffic:       {"organic", "direct", "referral", "social", "email"},
	models.SourceSEO:           {"branded", "non-branded", "local", "images"},
	models.SourceConversions:   {"visit", "signup", "trial", "purchase"},
	models.SourceRevenue:       {"new", "expansion", "renewal", "services"},
	models.SourceSubscriptions: {"starter", "pro", "business", "enterprise"},
	models.SourcePayments:      {"card", "invoice", "wallet", "bank"},
	models.SourceUnitEconomics: {"cac", "ltv", "payback", "margin"},
	models.SourceDemographics:  {"18-24", "25-34", "35-44", "45-54", "55+"},
	models.SourceSegmentation:  {"smb", "mid-market", "enterprise"},
	models.SourceCampaigns:     {"search", "display", "video", "newsletter"},
	models.SourcePredictions:   {"low", "expected", "high"},
}

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Mock is a deterministic Fetcher.
type Mock struct {
	clock dashboard.Clock

	mu       sync.Mutex
	latency  time.Duration
	failures map[models.DataSource]error
}

// NewMock creates a Mock. Dates in series labels are relative to clock.
func NewMock(clock dashboard.Clock) *Mock {
	if clock == nil {
		clock = dashboard.SystemClock{}
	}
	return &Mock{clock: clock, failures: map[models.DataSource]error{}}
}

// SetLatency makes every Fetch wait d before answering.
func (m *Mock) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

// SetFailure makes fetches for source return err. A nil err clears it.
func (m *Mock) SetFailure(source models.DataSource, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, source)
		return
	}
	m.failures[source] = err
}

// Fetch implements charts.Fetcher.
func (m *Mock) Fetch(ctx context.Context, source models.DataSource, field string, tr models.TimeRange) (charts.Data, error) {
	m.mu.Lock()
	latency, failure := m.latency, m.failures[source]
	m.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return charts.Data{}, ctx.Err()
		}
	}
	if failure != nil {
		return charts.Data{}, failure
	}
	if !models.IsValidDataSource(source) {
		return charts.Data{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if !models.IsValidTimeRange(tr) {
		tr = models.TimeRange30D
	}

	now := m.clock.Now()
	rng := newRNG(source, field, tr, now)
	base := scale[source]

	labels := periodLabels(tr, now)
	points := make([]charts.Point, len(labels))
	prevTotal, total := 0.0, 0.0
	for i, l := range labels {
		trend := 1 + 0.3*float64(i)/float64(len(labels))
		season := 1 + 0.1*math.Sin(float64(i))
		v := round(base * trend * season * (0.85 + 0.3*rng.Float64()))
		points[i] = charts.Point{Label: l, Value: v}
		total += v
		prevTotal += round(base * season * (0.8 + 0.3*rng.Float64()))
	}

	cats := categories[source]
	catPoints := make([]charts.Point, len(cats))
	remaining := 1.0
	for i, c := range cats {
		share := remaining * (0.3 + 0.4*rng.Float64())
		if i == len(cats)-1 {
			share = remaining
		}
		remaining -= share
		catPoints[i] = charts.Point{Label: c, Value: round(total * share)}
	}

	matrix := &charts.Matrix{Rows: cats, Cols: weekdays, Cells: make([][]float64, len(cats))}
	for i := range cats {
		row := make([]float64, len(weekdays))
		for j := range weekdays {
			row[j] = round(base / float64(len(cats)) * (0.5 + rng.Float64()))
		}
		matrix.Cells[i] = row
	}

	table := &charts.Table{Columns: []string{"segment", field, "share"}}
	for _, p := range catPoints {
		share := 0.0
		if total > 0 {
			share = p.Value / total * 100
		}
		table.Rows = append(table.Rows, []string{
			p.Label,
			charts.FormatValue(p.Value, models.FormatNumber),
			charts.FormatValue(share, models.FormatPercent),
		})
	}

	return charts.Data{
		Series:     []charts.Series{{Name: field, Points: points}},
		Value:      &total,
		Previous:   &prevTotal,
		Categories: catPoints,
		Matrix:     matrix,
		Table:      table,
	}, nil
}

func newRNG(source models.DataSource, field string, tr models.TimeRange, now time.Time) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", source, field, tr)
	day := uint64(now.UTC().Truncate(24 * time.Hour).Unix())
	return rand.New(rand.NewPCG(h.Sum64(), day))
}

// periodLabels returns one label per point, oldest first: daily for 7d
// and 30d, weekly for 90d, monthly for 12m.
func periodLabels(tr models.TimeRange, now time.Time) []string {
	now = now.UTC()
	var out []string
	switch tr {
	case models.TimeRange7D, models.TimeRange30D:
		n := tr.Days()
		for i := n - 1; i >= 0; i-- {
			out = append(out, now.AddDate(0, 0, -i).Format("2006-01-02"))
		}
	case models.TimeRange90D:
		for i := 12; i >= 0; i-- {
			out = append(out, now.AddDate(0, 0, -7*i).Format("2006-01-02"))
		}
	default:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := 11; i >= 0; i-- {
			out = append(out, first.AddDate(0, -i, 0).Format("2006-01"))
		}
	}
	return out
}

func round(x float64) float64 {
	return math.Round(x*100) / 100
}
