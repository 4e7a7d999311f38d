// Package compression implements the payload codecs applied before items hit the database.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

const (
	Zstd = "zstd"
	Gzip = "gzip"
	None = "none"
)

// New returns the compressor registered under name.
func New(name string) (Compressor, error) {
	switch name {
	case Zstd, "":
		return ZstdCompressor{}, nil
	case Gzip:
		return GzipCompressor{}, nil
	case None:
		return NoopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
