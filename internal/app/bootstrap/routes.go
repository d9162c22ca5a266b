// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	filesfeature "github.com/dalemusser/droppic/internal/app/features/files"
	foldersfeature "github.com/dalemusser/droppic/internal/app/features/folders"
	healthfeature "github.com/dalemusser/droppic/internal/app/features/health"
	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/apicors"
	"github.com/dalemusser/droppic/internal/app/system/auth"
	"github.com/dalemusser/droppic/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed.
//
// The service is a pure JSON API authenticated with bearer tokens, so
// there are no sessions and no CSRF layer; CORS is handled per feature
// router, permissive unless api_allowed_origins pins it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure mode makes weak token keys fatal instead of a warning.
	secure := coreCfg.Env == "prod"
	tokens, err := auth.NewTokenManager(appCfg.AuthTokenKey, appCfg.AuthTokenMaxAge, secure, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	entries := entry.New(deps.MongoDatabase)

	r := chi.NewRouter()

	// Global middleware: applies to ALL routes.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	apiCORS := apicors.FromOrigins(appCfg.APIAllowedOrigins...)

	// File API
	maxUploadBytes := appCfg.MaxUploadSizeMB << 20
	filesHandler := filesfeature.NewHandler(entries, deps.Media, maxUploadBytes, logger)
	r.Mount("/files", filesfeature.Routes(filesHandler, apiCORS, tokens.RequireUser))

	// Folder API
	foldersHandler := foldersfeature.NewHandler(entries, logger)
	r.Mount("/folders", foldersfeature.Routes(foldersHandler, apiCORS, tokens.RequireUser))

	// Uploaded files (local media backend only); the imagekit backend
	// serves from its own CDN.
	if appCfg.MediaBackend == "local" || appCfg.MediaBackend == "" {
		r.Handle(appCfg.MediaLocalURL+"/*", fileserver.Handler(appCfg.MediaLocalURL, appCfg.MediaLocalPath))
	}

	// JSON 404 for unmatched routes
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "Not found")
	})

	return r, nil
}
