// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authapifeature "github.com/dalemusser/strataconvert/internal/app/features/authapi"
	healthfeature "github.com/dalemusser/strataconvert/internal/app/features/health"
	historyapifeature "github.com/dalemusser/strataconvert/internal/app/features/historyapi"
	ratesapifeature "github.com/dalemusser/strataconvert/internal/app/features/ratesapi"
	appresources "github.com/dalemusser/strataconvert/internal/app/resources"
	apierrorstore "github.com/dalemusser/strataconvert/internal/app/store/apierrors"
	apirequeststore "github.com/dalemusser/strataconvert/internal/app/store/apirequests"
	"github.com/dalemusser/strataconvert/internal/app/system/apistats"
	"github.com/dalemusser/strataconvert/internal/app/system/errorlog"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The surface is small: three token-protected JSON endpoints, two public
// rate endpoints, health checks, and the embedded browser client. Every
// /api route runs behind the error ledger middleware so failed requests
// leave a trace in MongoDB.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// API stats store and recorder for tracking request statistics.
	apiStatsStore := apirequeststore.New(deps.MongoDatabase)
	apiStatsRecorder := apistats.NewRecorder(apiStatsStore, logger, appCfg.APIStatsBucket)

	// Error ledger captures requests that fail (status >= 400).
	errStore := apierrorstore.New(deps.MongoDatabase)
	errLedger := errorlog.Middleware(errorlog.Config{
		Store:          errStore,
		Logger:         logger,
		MaxBodyPreview: 500,
	})

	r := chi.NewRouter()

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session confirmation endpoint. The client posts its token here after
	// sign-in; a 200 means the server accepts the session.
	authHandler := authapifeature.NewHandler(logger)
	r.Route("/auth", func(sr chi.Router) {
		sr.Use(errLedger)
		sr.Mount("/", authapifeature.Routes(authHandler, deps.Verifier, apiStatsRecorder, logger))
	})

	// Conversion history endpoints (token required).
	historyHandler := historyapifeature.NewHandler(deps.MongoDatabase, logger)
	r.Route("/api/save-history", func(sr chi.Router) {
		sr.Use(errLedger)
		sr.Mount("/", historyapifeature.SaveRoutes(historyHandler, deps.Verifier, apiStatsRecorder, logger))
	})
	r.Route("/api/get-history", func(sr chi.Router) {
		sr.Use(errLedger)
		sr.Mount("/", historyapifeature.ListRoutes(historyHandler, deps.Verifier, apiStatsRecorder, logger))
	})

	// Exchange rate endpoints. Public: rates are not user data.
	ratesHandler := ratesapifeature.NewHandler(deps.Rates, logger)
	r.Route("/api", func(sr chi.Router) {
		sr.Use(errLedger)
		sr.Mount("/", ratesapifeature.Routes(ratesHandler, apiStatsRecorder))
	})

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.RedisClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// Everything else renders the browser client, which handles its own
	// routing once loaded.
	spa := appresources.SPAHandler()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) { spa.ServeHTTP(w, req) })
	r.NotFound(func(w http.ResponseWriter, req *http.Request) { spa.ServeHTTP(w, req) })

	return r, nil
}
