// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Database connection timeouts
//
// AppConfig is where everything specific to this service lives: the
// database, the auth token signing key, the media backend, and the
// trash retention policy.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Bearer token configuration
	AuthTokenKey    string        // Secret key for signing bearer tokens (must be strong in production)
	AuthTokenMaxAge time.Duration // How long issued tokens stay valid (default: 24h)

	// Media backend configuration
	MediaBackend string // "imagekit" or "local"

	// ImageKit configuration (only used if MediaBackend is "imagekit")
	ImageKitPublicKey   string // ImageKit public key (informational, used by clients)
	ImageKitPrivateKey  string // ImageKit private API key
	ImageKitURLEndpoint string // ImageKit delivery endpoint (e.g., https://ik.imagekit.io/yourid)

	// Local media configuration (only used if MediaBackend is "local")
	MediaLocalPath string // Directory uploaded files are written under (e.g., "./media")
	MediaLocalURL  string // URL prefix for serving local files (e.g., "/media")

	// API CORS. Empty means any origin (bearer tokens, no cookies);
	// set to pin the web app's domain(s).
	APIAllowedOrigins []string

	// Upload limits
	MaxUploadSizeMB int64 // Maximum upload size in megabytes (default: 32)

	// Trash retention
	TrashRetention     time.Duration // How long trashed entries are kept (0 disables the sweep)
	TrashSweepInterval time.Duration // How often the retention job runs (default: 1h)
}
