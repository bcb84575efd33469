package storefront

import (
	"os"

	"github.com/joho/godotenv"
)

const DefaultApiUrl = "http://localhost:8000/api"

// environment-driven settings. a local .env is layered under the process
// environment - existing environment variables win.
type EnvSettings struct {
	// base url of the product api, e.g. http://localhost:8000/api
	ApiUrl string
	// directory for file-backed storage. empty means in-memory only.
	StorageDir string
	// redis address for cross-process sync and storage. empty disables redis.
	RedisAddr string
	// websocket relay url for cross-process sync. empty disables the relay.
	SyncUrl string
	// sqlite database path. empty disables sqlite storage.
	SqlitePath string
}

func LoadEnvSettings() *EnvSettings {
	// missing .env is the normal case
	godotenv.Load()

	return &EnvSettings{
		ApiUrl:     envOrDefault("PROKOLESA_API_URL", DefaultApiUrl),
		StorageDir: os.Getenv("PROKOLESA_STORAGE_DIR"),
		RedisAddr:  os.Getenv("PROKOLESA_REDIS_ADDR"),
		SyncUrl:    os.Getenv("PROKOLESA_SYNC_URL"),
		SqlitePath: os.Getenv("PROKOLESA_SQLITE_PATH"),
	}
}

func envOrDefault(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
