package charts

import (
	"context"

	"github.com/dalemusser/stratadash/internal/domain/models"
)

// Point is one labelled value. For time series the label is the period.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is a named run of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Matrix is a grid of values. Sankey widgets read it as weighted links
// from row labels to column labels.
type Matrix struct {
	Rows  []string    `json:"rows"`
	Cols  []string    `json:"cols"`
	Cells [][]float64 `json:"cells"`
}

// Table is tabular data.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Data is what a Fetcher returns for a binding. A fetcher fills the parts
// it has; each variant reads the part matching its shape and falls back
// to the others where a conversion makes sense.
type Data struct {
	Series     []Series `json:"series,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Previous   *float64 `json:"previous,omitempty"`
	Categories []Point  `json:"categories,omitempty"`
	Matrix     *Matrix  `json:"matrix,omitempty"`
	Table      *Table   `json:"table,omitempty"`
}

// Fetcher resolves a data binding for a time range. Implementations may be
// slow or fail.
type Fetcher interface {
	Fetch(ctx context.Context, source models.DataSource, field string, tr models.TimeRange) (Data, error)
}
