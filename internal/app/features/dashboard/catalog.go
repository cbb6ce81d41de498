package dashboard

import (
	"net/http"

	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// CatalogResponse lists what the editor can offer.
type CatalogResponse struct {
	WidgetTypes   []widgetconfig.TypeInfo `json:"widgetTypes"`
	DataSources   []models.DataSource     `json:"dataSources"`
	TimeRanges    []models.TimeRange      `json:"timeRanges"`
	Visibilities  []models.Visibility     `json:"visibilities"`
	DefaultLayout models.DashboardLayout  `json:"defaultLayout"`
	DefaultRange  models.TimeRange        `json:"defaultTimeRange"`
}

// CatalogRoutes serves GET / with the widget catalogue.
func CatalogRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.widgetCatalog)
	return r
}

func (h *Handler) widgetCatalog(w http.ResponseWriter, _ *http.Request) {
	jsonutil.OK(w, CatalogResponse{
		WidgetTypes:   widgetconfig.Catalog(),
		DataSources:   models.AllDataSources(),
		TimeRanges:    models.AllTimeRanges(),
		Visibilities:  models.AllVisibilities(),
		DefaultLayout: models.DefaultLayout(),
		DefaultRange:  h.defaultRange,
	})
}
