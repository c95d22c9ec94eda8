package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./papersync.db"

	// DefaultZoteroBaseURL is the public Zotero Web API root
	DefaultZoteroBaseURL = "https://api.zotero.org"

	// DefaultCraftBaseURL is the documents API root used when none is configured
	DefaultCraftBaseURL = "https://connect.craft.do/links/api/v1"

	// DefaultSyncSchedule runs a pass every 6 hours
	DefaultSyncSchedule = "0 */6 * * *"

	// DefaultBatchSize is how many records a single pass fetches
	DefaultBatchSize = 10

	// MaxBatchSize caps the batch so one pass stays bounded
	MaxBatchSize = 50
)
