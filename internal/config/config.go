package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Log
		Zotero
		Craft
		Sync
		Tasks
		Lookup
		Secrets
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Log struct {
		Level  string // debug, info, warn, error
		Pretty bool   // Colored console output instead of JSON
		File   string // Optional rotating log file
	}
	Zotero struct {
		APIKey            string
		UserID            string // Resolved from the key when empty
		BaseURL           string
		FolderSelector    string // user:<key>, group:<id>, group:<id>:<key>
		Timeout           time.Duration
		RequestsPerMinute int
		MaxRetries        int
	}
	Craft struct {
		Token             string
		BaseURL           string
		CollectionID      string
		ParentDocumentID  string
		Timeout           time.Duration
		RequestsPerMinute int
		MaxRetries        int
	}
	Sync struct {
		Enabled   bool
		Schedule  string // Cron format: "0 */6 * * *" = every 6 hours
		BatchSize int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
		RunRetention    time.Duration // Age after which sync run history is pruned
	}
	Lookup struct {
		CacheSize int
		CacheTTL  time.Duration
	}
	Secrets struct {
		Key     string // Base64 AES-256 key sealing stored credentials
		KeyFile string // Used when Key is empty; created on first start
	}
)

// loadEnvFile reads an optional .env file into the process environment.
// Variables already set in the environment win.
func loadEnvFile() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func NewConfig() *Config {
	loadEnvFile()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("log_file", "")

	v.SetDefault("zotero_base_url", DefaultZoteroBaseURL)
	v.SetDefault("zotero_timeout", "30s")
	v.SetDefault("zotero_requests_per_minute", 120)
	v.SetDefault("zotero_max_retries", 3)

	v.SetDefault("craft_base_url", DefaultCraftBaseURL)
	v.SetDefault("craft_timeout", "30s")
	v.SetDefault("craft_requests_per_minute", 60)
	v.SetDefault("craft_max_retries", 3)

	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", DefaultSyncSchedule)
	v.SetDefault("sync_batch_size", DefaultBatchSize)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("sync_run_retention", "720h")

	v.SetDefault("lookup_cache_size", 64)
	v.SetDefault("lookup_cache_ttl", "5m")

	v.SetDefault("secrets_key", "")
	v.SetDefault("secrets_key_file", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
			File:   v.GetString("LOG_FILE"),
		},
		Zotero: Zotero{
			APIKey:            v.GetString("ZOTERO_API_KEY"),
			UserID:            v.GetString("ZOTERO_USER_ID"),
			BaseURL:           v.GetString("ZOTERO_BASE_URL"),
			FolderSelector:    v.GetString("ZOTERO_FOLDER"),
			Timeout:           v.GetDuration("ZOTERO_TIMEOUT"),
			RequestsPerMinute: v.GetInt("ZOTERO_REQUESTS_PER_MINUTE"),
			MaxRetries:        v.GetInt("ZOTERO_MAX_RETRIES"),
		},
		Craft: Craft{
			Token:             v.GetString("CRAFT_TOKEN"),
			BaseURL:           v.GetString("CRAFT_BASE_URL"),
			CollectionID:      v.GetString("CRAFT_COLLECTION_ID"),
			ParentDocumentID:  v.GetString("CRAFT_PARENT_DOCUMENT_ID"),
			Timeout:           v.GetDuration("CRAFT_TIMEOUT"),
			RequestsPerMinute: v.GetInt("CRAFT_REQUESTS_PER_MINUTE"),
			MaxRetries:        v.GetInt("CRAFT_MAX_RETRIES"),
		},
		Sync: Sync{
			Enabled:   v.GetBool("SYNC_ENABLED"),
			Schedule:  v.GetString("SYNC_SCHEDULE"),
			BatchSize: ClampBatchSize(v.GetInt("SYNC_BATCH_SIZE")),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RunRetention:    v.GetDuration("SYNC_RUN_RETENTION"),
		},
		Lookup: Lookup{
			CacheSize: v.GetInt("LOOKUP_CACHE_SIZE"),
			CacheTTL:  v.GetDuration("LOOKUP_CACHE_TTL"),
		},
		Secrets: Secrets{
			Key:     v.GetString("SECRETS_KEY"),
			KeyFile: v.GetString("SECRETS_KEY_FILE"),
		},
	}
}

// ClampBatchSize keeps a batch size within [1, MaxBatchSize], using the
// default for non-positive values.
func ClampBatchSize(n int) int {
	if n <= 0 {
		return DefaultBatchSize
	}
	if n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}
