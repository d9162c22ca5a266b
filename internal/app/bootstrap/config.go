// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "DROPPIC"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, media_backend, etc.
//   - Environment variables: DROPPIC_MONGO_URI, DROPPIC_MEDIA_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --media_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "droppic", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer token configuration
	{Name: "auth_token_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Bearer token signing key (must be strong in production)"},
	{Name: "auth_token_max_age", Default: "24h", Desc: "Bearer token max age (e.g., 24h, 720h)"},

	// Media backend configuration
	{Name: "media_backend", Default: "local", Desc: "Media backend: 'imagekit' or 'local'"},
	{Name: "imagekit_public_key", Default: "", Desc: "ImageKit public key"},
	{Name: "imagekit_private_key", Default: "", Desc: "ImageKit private API key"},
	{Name: "imagekit_url_endpoint", Default: "", Desc: "ImageKit delivery endpoint URL"},
	{Name: "media_local_path", Default: "./media", Desc: "Local media storage path"},
	{Name: "media_local_url", Default: "/media", Desc: "URL prefix for serving local media"},

	// API CORS
	{Name: "api_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call the API (empty = any origin)"},

	// Upload limits
	{Name: "max_upload_size_mb", Default: 32, Desc: "Maximum upload size in megabytes"},

	// Trash retention
	{Name: "trash_retention", Default: "720h", Desc: "How long trashed entries are kept before permanent deletion ('0' disables the sweep)"},
	{Name: "trash_sweep_interval", Default: "1h", Desc: "How often the trash retention job runs"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, DROPPIC_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthTokenKey:    appValues.String("auth_token_key"),
		AuthTokenMaxAge: appValues.Duration("auth_token_max_age", 24*time.Hour),

		MediaBackend:        appValues.String("media_backend"),
		ImageKitPublicKey:   appValues.String("imagekit_public_key"),
		ImageKitPrivateKey:  appValues.String("imagekit_private_key"),
		ImageKitURLEndpoint: appValues.String("imagekit_url_endpoint"),
		MediaLocalPath:      appValues.String("media_local_path"),
		MediaLocalURL:       appValues.String("media_local_url"),

		APIAllowedOrigins: splitOrigins(appValues.String("api_allowed_origins")),

		MaxUploadSizeMB: int64(appValues.Int("max_upload_size_mb")),

		TrashRetention:     appValues.Duration("trash_retention", 720*time.Hour),
		TrashSweepInterval: appValues.Duration("trash_sweep_interval", 1*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// splitOrigins parses a comma-separated origin list, dropping blanks.
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.MediaBackend {
	case "imagekit":
		if appCfg.ImageKitPrivateKey == "" {
			return fmt.Errorf("media_backend is 'imagekit' but imagekit_private_key is not set")
		}
	case "local", "":
	default:
		return fmt.Errorf("unknown media backend: %s", appCfg.MediaBackend)
	}

	if appCfg.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("max_upload_size_mb must be positive, got %d", appCfg.MaxUploadSizeMB)
	}

	return nil
}
