package streamio

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Decoders and encoders are pinned to a single goroutine apiece: the
// repository model is one logical actor, so the codec's own worker pool
// would only add idle goroutines per pooled instance.
var (
	zstdReaders = sync.Pool{
		New: func() any {
			d, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			return &ZstdDecoder{Decoder: d}
		},
	}
	zstdWriters = sync.Pool{
		New: func() any {
			e, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
			return &ZstdEncoder{Encoder: e}
		},
	}
)

type ZstdDecoder struct {
	*zstd.Decoder
}

// GetZstdReader returns a pooled decoder reset to read from r. Return it
// with PutZstdReader after the stream has been drained.
func GetZstdReader(r io.Reader) (*ZstdDecoder, error) {
	z := zstdReaders.Get().(*ZstdDecoder)
	if err := z.Reset(r); err != nil {
		zstdReaders.Put(z)
		return nil, err
	}
	return z, nil
}

// PutZstdReader hands z back to the pool.
func PutZstdReader(z *ZstdDecoder) {
	zstdReaders.Put(z)
}

type ZstdEncoder struct {
	*zstd.Encoder
}

// GetZstdWriter returns a pooled encoder reset to write to w. Return it
// with PutZstdWriter, which also closes the frame.
func GetZstdWriter(w io.Writer) *ZstdEncoder {
	z := zstdWriters.Get().(*ZstdEncoder)
	z.Reset(w)
	return z
}

// PutZstdWriter flushes and closes the current frame, then hands z back
// to the pool.
func PutZstdWriter(z *ZstdEncoder) {
	_ = z.Encoder.Close()
	zstdWriters.Put(z)
}
