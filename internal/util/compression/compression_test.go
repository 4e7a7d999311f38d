package compression

import (
	"bytes"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		expectErr bool
	}{
		{"zstd", false},
		{"gzip", false},
		{"none", false},
		{"", false},
		{"lz4", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.name)
			if tc.expectErr {
				if err == nil {
					t.Error("Expected error for unknown compressor")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("Expected non-nil compressor")
			}
		})
	}
}

func TestCompressors(t *testing.T) {
	payload := bytes.Repeat([]byte("\x89PNG\r\n\x1a\n fake image payload "), 64)

	compressors := map[string]Compressor{
		"zstd": ZstdCompressor{},
		"gzip": GzipCompressor{},
		"none": NoopCompressor{},
	}

	for name, c := range compressors {
		t.Run(name, func(t *testing.T) {
			compressed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}

			if name != "none" && len(compressed) >= len(payload) {
				t.Errorf("Expected repetitive payload to shrink, %d >= %d", len(compressed), len(payload))
			}

			decompressed, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("Payload changed after compression")
			}
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	garbage := []byte("definitely not compressed")

	if _, err := (GzipCompressor{}).Decompress(garbage); err == nil {
		t.Error("Expected gzip error on garbage input")
	}
	if _, err := (ZstdCompressor{}).Decompress(garbage); err == nil {
		t.Error("Expected zstd error on garbage input")
	}
}

func TestCompressorsConcurrent(t *testing.T) {
	payload := bytes.Repeat([]byte("concurrent payload "), 128)
	c := ZstdCompressor{}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			compressed, err := c.Compress(payload)
			if err != nil {
				done <- err
				return
			}
			out, err := c.Decompress(compressed)
			if err == nil && !bytes.Equal(out, payload) {
				err = errors.New("payload changed")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("Concurrent round trip failed: %v", err)
		}
	}
}

func TestGzipLevel(t *testing.T) {
	payload := bytes.Repeat([]byte("level "), 256)

	if _, err := (GzipCompressor{Level: 42}).Compress(payload); err == nil {
		t.Error("Expected an invalid level to fail")
	}

	compressed, err := (GzipCompressor{Level: 9}).Compress(payload)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	out, err := (GzipCompressor{}).Decompress(compressed)
	if err != nil || !bytes.Equal(out, payload) {
		t.Errorf("Round trip at level 9 failed: %v", err)
	}
}
