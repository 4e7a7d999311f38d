// Command migrate seeds a planner database from a directory of images. Files
// are placed newest first, so the most recently modified image ends up at the
// top of the container, the way a profile shows its latest post.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/debemdeboas/instaplanner/internal/config"
	"github.com/debemdeboas/instaplanner/internal/db"
	"github.com/debemdeboas/instaplanner/internal/logger"
	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/repository"
	"github.com/debemdeboas/instaplanner/internal/upload"
	"github.com/debemdeboas/instaplanner/internal/util/compression"
)

type source struct {
	path    string
	modTime time.Time
}

func main() {
	path := flag.String("path", "", "Path to the directory containing image files")
	dbPath := flag.String("db", config.DefaultStoragePath, "Path to the planner database")
	to := flag.String("to", string(model.Grid), "Container to seed (grid or sidebar)")
	codec := flag.String("compression", config.DefaultCompression, "Payload compression (zstd, gzip or none)")
	flag.Parse()

	log := logger.New(config.DefaultLogLevel)
	db.SetLogger(log)
	repository.SetLogger(log)

	if *path == "" {
		log.Fatal().Msg("The --path flag is required")
	}
	container, err := model.ParseContainer(*to)
	if err != nil || !container.Valid() {
		log.Fatal().Str("to", *to).Msg("--to must be grid or sidebar")
	}
	compressor, err := compression.New(*codec)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid compression")
	}

	sqlite := db.NewSQLite(*dbPath)
	if err := sqlite.InitDb(); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	defer sqlite.Close()

	repo := repository.NewDBItemRepository(sqlite, compressor)
	ctx := context.Background()

	sources, err := readSources(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Error reading directory")
	}

	existing, err := repo.Count(ctx, container)
	if err != nil {
		log.Fatal().Err(err).Msg("Error counting existing images")
	}

	loader := upload.NewLoader(upload.WithLogger(log))
	position := existing
	for _, src := range sources {
		items, err := loader.LoadFiles([]string{src.path})
		if err != nil || len(items) == 0 {
			log.Warn().Err(err).Str("file", filepath.Base(src.path)).Msg("Skipping file")
			continue
		}

		if err := repo.SaveItems(ctx, items, container, []int{position}); err != nil {
			log.Error().Stack().Err(err).Str("file", filepath.Base(src.path)).Msg("Error saving image")
			continue
		}
		position++
		log.Info().Str("file", filepath.Base(src.path)).Str("id", string(items[0].ID)).Msg("Image saved")
	}

	log.Info().
		Int("saved", position-existing).
		Int("skipped", len(sources)-(position-existing)).
		Str("container", string(container)).
		Msg("Migration finished")
}

// readSources lists the regular files in dir, newest first.
func readSources(dir string) ([]source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	sources := make([]source, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if !sources[i].modTime.Equal(sources[j].modTime) {
			return sources[i].modTime.After(sources[j].modTime)
		}
		return sources[i].path < sources[j].path
	})
	return sources, nil
}
