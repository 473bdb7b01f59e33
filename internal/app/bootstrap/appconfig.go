// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig carries the
// framework-level settings (environment, security headers, DB timeouts);
// everything specific to the log service lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool per worker
	MongoMinPoolSize uint64 // Minimum connections to keep warm per worker

	// HTTP serving
	HTTPPort       int           // Port every worker binds
	ShutdownGrace  time.Duration // Time a worker has to drain in-flight requests
	RequestTimeout time.Duration // Per-request timeout (0 = none)

	// Worker pool
	InstanceCount  int           // Workers to run (0 = one per CPU)
	RespawnMax     int           // Respawns allowed per RespawnWindow (0 = unlimited)
	RespawnWindow  time.Duration // Window for RespawnMax
	RespawnBackoff time.Duration // Fixed delay before each respawn

	// Log API limits
	MaxBodyBytes    int64 // Largest accepted ingest body
	FindLogsLimit   int64 // Result cap of an unpaged findLogs
	FindLogsPageMax int64 // Largest page a paged findLogs may request

	// Login cookies
	CookieHashKey string // When set, loginUser/loginPassword cookies are signed

	// Credential seeding (run by the supervisor after reconciliation)
	SeedLoginUser string
	SeedLoginKey  string

	// WorkerID is set by the supervisor on the processes it spawns.
	// Empty means this process is the supervisor.
	WorkerID string
}

// IsWorker reports whether this process was spawned by the supervisor.
func (c AppConfig) IsWorker() bool {
	return c.WorkerID != ""
}
