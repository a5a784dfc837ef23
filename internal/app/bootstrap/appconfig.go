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
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to GatherHub lives: the MongoDB
// connection, session cookies, Google OAuth credentials, file storage for
// group images, and the invitation token lifetime.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: gatherhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// CSRF protection
	CSRFKey string // Secret key for CSRF tokens (defaults to SessionKey when blank)

	// File storage for group cover and thumbnail images
	StorageLocalPath string // Local storage path (e.g., "./uploads/groups")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files/groups")

	// Google OAuth configuration (sign-in is email/password only when blank)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks and invitation links
	BaseURL string // e.g., "https://gatherhub.example.com" or "http://localhost:3000"

	// How long a group invitation token stays claimable.
	InviteTTL time.Duration
}
