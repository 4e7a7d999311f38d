// Package upload reads image files from disk into items ready to be added to a collection.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/model"
)

const (
	DefaultMaxFileSize = 3 * 1024 * 1024
	DefaultMaxFiles    = 20

	// sniffLen is how much of a file content detection looks at.
	sniffLen = 512
)

var (
	ErrTooManyFiles = errors.New("too many files")
	ErrTooLarge     = errors.New("file too large")
	ErrNotImage     = errors.New("not an image")
	ErrNoImages     = errors.New("no image files")
)

// Error is returned for every rejected file or batch.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("upload failed: %s", e.Message)
	}
	return fmt.Sprintf("upload failed: %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Loader struct {
	maxFileSize int64
	maxFiles    int
	newID       func() model.ItemID
	logger      zerolog.Logger
}

type Option func(*Loader)

func WithMaxFileSize(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxFileSize = n
		}
	}
}

func WithMaxFiles(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxFiles = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		maxFileSize: DefaultMaxFileSize,
		maxFiles:    DefaultMaxFiles,
		newID:       model.NewItemID,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFiles reads every path into an item. A batch larger than the limit is
// rejected as a whole; otherwise the valid files are returned together with
// the joined errors of the ones that were rejected.
func (l *Loader) LoadFiles(paths []string) ([]model.Item, error) {
	if len(paths) > l.maxFiles {
		return nil, &Error{
			Message: fmt.Sprintf("Please add %d or fewer images at a time.", l.maxFiles),
			Err:     ErrTooManyFiles,
		}
	}

	items := make([]model.Item, 0, len(paths))
	var errs []error
	for _, path := range paths {
		item, err := l.load(path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", path).Msg("File rejected")
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}

	l.logger.Debug().Int("loaded", len(items)).Int("rejected", len(errs)).Msg("Files loaded")
	return items, errors.Join(errs...)
}

// LoadDir loads the image files directly inside dir in name order. Files that
// are not images are skipped.
func (l *Loader) LoadDir(dir string) ([]model.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Path: dir, Message: "Error reading directory", Err: err}
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if ok, err := isImage(path); err != nil || !ok {
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, &Error{Path: dir, Message: "Please add only image files.", Err: ErrNoImages}
	}

	sort.Strings(paths)
	return l.LoadFiles(paths)
}

func (l *Loader) load(path string) (model.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Item{}, &Error{Path: path, Message: "Error reading file", Err: err}
	}
	if info.IsDir() {
		return model.Item{}, &Error{Path: path, Message: "Is a directory", Err: ErrNotImage}
	}
	if info.Size() > l.maxFileSize {
		return model.Item{}, &Error{
			Path:    path,
			Message: fmt.Sprintf("File %s is too large (max %s)", filepath.Base(path), humanSize(l.maxFileSize)),
			Err:     ErrTooLarge,
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Item{}, &Error{Path: path, Message: "Failed to read image file", Err: err}
	}
	if !isImageContent(data) {
		return model.Item{}, &Error{
			Path:    path,
			Message: fmt.Sprintf("File %s is not an image", filepath.Base(path)),
			Err:     ErrNotImage,
		}
	}

	return model.Item{ID: l.newID(), Payload: data}, nil
}

func isImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isImageContent(buf[:n]), nil
}

func isImageContent(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
