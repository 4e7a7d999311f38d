package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Version  string         `yaml:"version" toml:"version" default:"1"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Gallery  GalleryConfig  `yaml:"gallery" toml:"gallery"`
	Upload   UploadConfig   `yaml:"upload" toml:"upload"`
	Gesture  GestureConfig  `yaml:"gesture" toml:"gesture"`
	History  HistoryConfig  `yaml:"history" toml:"history"`
	Keyboard KeyboardConfig `yaml:"keyboard" toml:"keyboard"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Export   ExportConfig   `yaml:"export" toml:"export"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	Driver      string `yaml:"driver" toml:"driver" default:"sqlite"`
	Path        string `yaml:"path" toml:"path" default:"instaplanner.db"`
	Compression string `yaml:"compression" toml:"compression" default:"zstd"`
}

type GalleryConfig struct {
	MaxItems int `yaml:"max_items" toml:"max_items" default:"100"`
}

type UploadConfig struct {
	MaxFileSize      int64 `yaml:"max_file_size" toml:"max_file_size" default:"3145728"`
	MaxFilesPerBatch int   `yaml:"max_files_per_batch" toml:"max_files_per_batch" default:"20"`
}

type GestureConfig struct {
	SwapDelayMs int `yaml:"swap_delay_ms" toml:"swap_delay_ms" default:"250"`
}

func (g GestureConfig) SwapDelay() time.Duration {
	return time.Duration(g.SwapDelayMs) * time.Millisecond
}

type HistoryConfig struct {
	// Limit caps the undo stack. Zero keeps every action.
	Limit int `yaml:"limit" toml:"limit" default:"0"`
}

type KeyboardConfig struct {
	Platform string `yaml:"platform" toml:"platform" default:"auto"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" default:"info"`
}

type ExportConfig struct {
	Columns  int    `yaml:"columns" toml:"columns" default:"3"`
	PageSize string `yaml:"page_size" toml:"page_size" default:"A4"`
}

// LoadConfig reads path as YAML, or TOML when it ends in ".toml", on top of
// the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		return config, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	configLogger.Info().Str("path", path).Msg("Config loaded")
	return config, nil
}

// ApplyEnv overrides file settings with the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf(ErrUnsupportedVersionFmt, c.Version)
	}

	switch c.Storage.Driver {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StorageSQLite, StorageMemory, c.Storage.Driver)
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the %s driver", StorageSQLite)
	}
	switch c.Storage.Compression {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("storage.compression must be zstd, gzip or none, got %q", c.Storage.Compression)
	}

	if c.Gallery.MaxItems <= 0 {
		return fmt.Errorf("gallery.max_items must be positive, got %d", c.Gallery.MaxItems)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Upload.MaxFilesPerBatch <= 0 {
		return fmt.Errorf("upload.max_files_per_batch must be positive, got %d", c.Upload.MaxFilesPerBatch)
	}
	if c.Gesture.SwapDelayMs < 0 {
		return fmt.Errorf("gesture.swap_delay_ms cannot be negative, got %d", c.Gesture.SwapDelayMs)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit cannot be negative, got %d", c.History.Limit)
	}

	switch strings.ToLower(c.Keyboard.Platform) {
	case "auto", "mac", "other":
	default:
		return fmt.Errorf("keyboard.platform must be auto, mac or other, got %q", c.Keyboard.Platform)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	if c.Export.Columns < 1 || c.Export.Columns > 10 {
		return fmt.Errorf("export.columns must be between 1 and 10, got %d", c.Export.Columns)
	}
	switch strings.ToLower(c.Export.PageSize) {
	case "a3", "a4", "a5", "letter", "legal":
	default:
		return fmt.Errorf("export.page_size %q is not supported", c.Export.PageSize)
	}

	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
