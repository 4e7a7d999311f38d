package config

const (
	// Startup errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrLoadConfigFmt         = "Failed to load config: %v"
	ErrLoadCollectionsFmt    = "Failed to load collections: %v"

	// Config errors
	ErrUnsupportedVersionFmt = "unsupported configuration version %q"
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
	ErrCreateTempFileFmt     = "Failed to create temp file: %v"
)
