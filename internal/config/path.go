package config

const (
	EnvConfig   = "INSTAPLANNER_CONFIG"
	EnvDatabase = "INSTAPLANNER_DB"
	EnvLogLevel = "INSTAPLANNER_LOG_LEVEL"

	DefaultConfigPath = "config.yaml"
	ExampleConfigPath = "config.example.yaml"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)
