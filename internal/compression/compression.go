// Package compression wraps zstd encode/decode behind a small interface so
// callers that persist a document (snapshotstore) don't reach for the
// klauspost/compress API directly.
package compression

import (
	"github.com/klauspost/compress/zstd"
)

// Compressor handles whole-buffer compression of a single document.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ZstdCompressor implements Compressor with a reusable encoder/decoder
// pair, avoiding the per-call setup cost of zstd.NewWriter/NewReader.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor builds a ZstdCompressor at the given speed/ratio level.
func NewZstdCompressor(level int) (*ZstdCompressor, error) {
	var zlevel zstd.EncoderLevel
	switch {
	case level <= 1:
		zlevel = zstd.SpeedFastest
	case level <= 3:
		zlevel = zstd.SpeedDefault
	case level <= 5:
		zlevel = zstd.SpeedBetterCompression
	default:
		zlevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zlevel))
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}

	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Close releases the encoder/decoder resources.
func (c *ZstdCompressor) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}
