// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package pack

import "io"

// OffsetReader transforms an io.ReaderAt into an io.Reader by beginning and
// advancing all reads at the given offset, for at most "size" bytes.
type OffsetReader struct {
	raw io.ReaderAt

	// offset is the position of the next read from the underlying data
	// source. It is incremented upon reads.
	offset int64

	n int64 // max bytes remaining
}

func NewOffsetReader(r io.ReaderAt, offset int64, size int64) *OffsetReader {
	return &OffsetReader{raw: r, offset: offset, n: size}
}

// Read implements io.Reader.Read by reading into the given []byte, "p" from
// the last known offset.
//
// It returns any error encountered from the underlying data stream, and
// advances the reader forward by "n", the number of bytes read from the
// underlying data stream.
func (r *OffsetReader) Read(p []byte) (n int, err error) {
	if r.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.n {
		p = p[0:r.n]
	}
	n, err = r.raw.ReadAt(p, r.offset)
	r.offset += int64(n)
	r.n -= int64(n)
	return
}
