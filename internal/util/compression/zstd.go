package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Image payloads are already entropy coded, so the fastest level gets nearly
// all of the available gain.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// zstdCodecs returns the shared encoder and decoder. EncodeAll and DecodeAll
// are safe for concurrent use.
func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

type ZstdCompressor struct{}

func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, _, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	_, decoder, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	return decoder.DecodeAll(data, nil)
}
