package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor writes standard gzip streams, for databases shared with
// tools that cannot read zstd.
type GzipCompressor struct {
	// Level defaults to gzip.BestSpeed.
	Level int
}

func (g GzipCompressor) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.BestSpeed
	}

	var b bytes.Buffer
	writer, err := gzip.NewWriterLevel(&b, level)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
