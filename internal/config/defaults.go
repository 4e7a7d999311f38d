package config

// SupportedVersion is the only configuration schema version understood.
const SupportedVersion = "1"

// Defaults mirrored from the struct tags; TestConfigConstantsMatch keeps them in sync.
const (
	DefaultVersion          = SupportedVersion
	DefaultStorageDriver    = StorageSQLite
	DefaultStoragePath      = "instaplanner.db"
	DefaultCompression      = "zstd"
	DefaultMaxItems         = 100
	DefaultMaxFileSize      = 3 * 1024 * 1024
	DefaultMaxFilesPerBatch = 20
	DefaultSwapDelayMs      = 250
	DefaultHistoryLimit     = 0
	DefaultKeyboardPlatform = "auto"
	DefaultLogLevel         = "info"
	DefaultExportColumns    = 3
	DefaultExportPageSize   = "A4"
)
