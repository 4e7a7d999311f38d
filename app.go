package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/config"
	"github.com/debemdeboas/instaplanner/internal/db"
	"github.com/debemdeboas/instaplanner/internal/export"
	"github.com/debemdeboas/instaplanner/internal/gallery"
	"github.com/debemdeboas/instaplanner/internal/gesture"
	"github.com/debemdeboas/instaplanner/internal/history"
	"github.com/debemdeboas/instaplanner/internal/keyboard"
	"github.com/debemdeboas/instaplanner/internal/logger"
	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/planner"
	"github.com/debemdeboas/instaplanner/internal/repository"
	"github.com/debemdeboas/instaplanner/internal/shell"
	"github.com/debemdeboas/instaplanner/internal/upload"
	"github.com/debemdeboas/instaplanner/internal/util/compression"
)

// app owns everything a command needs, built from the configuration.
type app struct {
	configPath string
	dbPath     string

	cfg    *config.Config
	logger zerolog.Logger

	sqlite   *db.SQLite
	gallery  *gallery.Manager
	planner  *planner.Planner
	gestures *gesture.Resolver
	keys     *keyboard.Router
	loader   *upload.Loader
	sheet    *export.ProfileSheet
	printer  *shell.Printer
}

func (a *app) open(ctx context.Context, out io.Writer, logOut io.Writer) (err error) {
	path := a.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	if path == "" {
		path = config.DefaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf(config.ErrLoadConfigFmt, err)
	}
	cfg.ApplyEnv()
	if a.dbPath != "" {
		cfg.Storage.Path = a.dbPath
	}
	a.cfg = cfg

	a.logger = logger.NewWithWriter(cfg.Logging.Level, logOut)
	config.SetLogger(a.logger)
	db.SetLogger(a.logger)
	repository.SetLogger(a.logger)

	defer func() {
		if err != nil {
			a.close()
		}
	}()

	repo, err := a.openRepository()
	if err != nil {
		return err
	}

	a.printer = shell.NewPrinter(out)
	a.gallery = gallery.New(repo, a.printer,
		gallery.WithMaxItems(cfg.Gallery.MaxItems),
		gallery.WithLogger(a.logger),
	)
	if err := a.gallery.Load(ctx); err != nil {
		return fmt.Errorf(config.ErrLoadCollectionsFmt, err)
	}

	a.planner = planner.New(a.gallery,
		history.New(history.WithLimit(cfg.History.Limit)),
		planner.WithNotifier(a.printer),
		planner.WithLogger(a.logger),
	)

	platform, err := keyboard.ParsePlatform(cfg.Keyboard.Platform)
	if err != nil {
		return err
	}
	a.keys = keyboard.New(a.planner, keyboard.WithPlatform(platform), keyboard.WithLogger(a.logger))
	a.gestures = gesture.New(a.planner,
		gesture.WithDelay(cfg.Gesture.SwapDelay()),
		gesture.WithLogger(a.logger),
	)

	a.loader = upload.NewLoader(
		upload.WithMaxFileSize(cfg.Upload.MaxFileSize),
		upload.WithMaxFiles(cfg.Upload.MaxFilesPerBatch),
		upload.WithLogger(a.logger),
	)
	a.sheet = export.NewProfileSheet(
		export.WithColumns(cfg.Export.Columns),
		export.WithPageSize(cfg.Export.PageSize),
		export.WithLogger(a.logger),
	)

	a.logger.Debug().
		Str("driver", cfg.Storage.Driver).
		Str("path", cfg.Storage.Path).
		Int("grid", a.gallery.Len(model.Grid)).
		Int("sidebar", a.gallery.Len(model.Sidebar)).
		Msg("Planner ready")
	return nil
}

func (a *app) openRepository() (repository.ItemRepository, error) {
	if a.cfg.Storage.Driver == config.StorageMemory {
		return repository.NewMemoryItemRepository(), nil
	}

	compressor, err := compression.New(a.cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}

	a.sqlite = db.NewSQLite(a.cfg.Storage.Path)
	if err := a.sqlite.InitDb(); err != nil {
		return nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	return repository.NewDBItemRepository(a.sqlite, compressor), nil
}

// close applies pending drops, flushes queued writes and releases the database.
func (a *app) close() {
	if a.gestures != nil {
		a.gestures.Close()
	}
	if a.gallery != nil {
		a.gallery.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing database")
		}
	}
}

func (a *app) shell() *shell.Shell {
	return shell.New(shell.Deps{
		Planner:  a.planner,
		Gestures: a.gestures,
		Keys:     a.keys,
		Loader:   a.loader,
		Sheet:    a.sheet,
		Printer:  a.printer,
		Logger:   a.logger,
	})
}
