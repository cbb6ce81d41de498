// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	dashboardfeature "github.com/dalemusser/stratadash/internal/app/features/dashboard"
	deploymentsfeature "github.com/dalemusser/stratadash/internal/app/features/deployments"
	healthfeature "github.com/dalemusser/stratadash/internal/app/features/health"
	"github.com/dalemusser/stratadash/internal/app/system/apicors"
	"github.com/dalemusser/stratadash/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, store connection, schema setup, and
// Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	return newRouter(coreCfg, appCfg, deps, logger), nil
}

func newRouter(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) chi.Router {
	svc := deps.Services
	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(appCfg.APIRequestTimeout))

	if coreCfg != nil {
		// CORS middleware: must be early in the chain to handle preflight requests.
		r.Use(middleware.CORSFromConfig(coreCfg))

		// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
		r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Docs, deps.Backend, svc.Sessions, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// JSON API: dashboards, editor sessions, the widget catalogue and deployments
	dashboardHandler := dashboardfeature.NewHandler(
		svc.Catalog,
		svc.Sessions,
		svc.Renderer,
		models.TimeRange(appCfg.DefaultTimeRange),
		logger,
	)
	deploymentsHandler := deploymentsfeature.NewHandler(svc.Catalog, logger)

	r.Route("/api", func(r chi.Router) {
		if len(appCfg.APICORSOrigins) > 0 {
			r.Use(apicors.Middleware(appCfg.APICORSOrigins...))
		}
		r.Mount("/catalog", dashboardfeature.CatalogRoutes(dashboardHandler))
		r.Mount("/dashboards", dashboardfeature.Routes(dashboardHandler))
		r.Mount("/editor/sessions", dashboardfeature.SessionRoutes(dashboardHandler))
		r.Mount("/deployments", deploymentsfeature.Routes(deploymentsHandler))
	})

	// 404 catch-all for unmatched routes
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "no route for "+req.Method+" "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method "+req.Method+" not allowed")
	})

	return r
}
