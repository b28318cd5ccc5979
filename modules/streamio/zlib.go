package streamio

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

var (
	zlibReader = sync.Pool{
		New: func() any {
			return new(ZlibDecoder)
		},
	}
	zlibWriter = sync.Pool{
		New: func() any {
			return zlib.NewWriter(nil)
		},
	}
)

// ZlibDecoder wraps a zlib reader so it can be pooled; the underlying
// reader is created lazily on first use and reset afterwards.
type ZlibDecoder struct {
	rc io.ReadCloser
}

func (z *ZlibDecoder) Read(p []byte) (int, error) {
	return z.rc.Read(p)
}

// GetZlibReader returns a *ZlibDecoder that is managed by a sync.Pool.
// Returns a decoder that is reset with r and ready for use.
//
// After use, the *ZlibDecoder should be put back into the sync.Pool
// by calling PutZlibReader.
func GetZlibReader(r io.Reader) (*ZlibDecoder, error) {
	z := zlibReader.Get().(*ZlibDecoder)
	if z.rc == nil {
		rc, err := zlib.NewReader(r)
		if err != nil {
			zlibReader.Put(z)
			return nil, err
		}
		z.rc = rc
		return z, nil
	}
	if err := z.rc.(zlib.Resetter).Reset(r, nil); err != nil {
		zlibReader.Put(z)
		return nil, err
	}
	return z, nil
}

// PutZlibReader puts z back into its sync.Pool.
func PutZlibReader(z *ZlibDecoder) {
	zlibReader.Put(z)
}

// GetZlibWriter returns a *zlib.Writer that is managed by a sync.Pool.
// Returns a writer that is reset with w and ready for use.
//
// After use, the *zlib.Writer should be put back into the sync.Pool
// by calling PutZlibWriter.
func GetZlibWriter(w io.Writer) *zlib.Writer {
	z := zlibWriter.Get().(*zlib.Writer)
	z.Reset(w)
	return z
}

// PutZlibWriter puts z back into its sync.Pool, first closing the writer to
// flush any partially-written blocks.
func PutZlibWriter(z *zlib.Writer) {
	_ = z.Close()
	zlibWriter.Put(z)
}
