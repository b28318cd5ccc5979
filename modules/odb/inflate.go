// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"bytes"
	"errors"
	"io"

	"github.com/fullstackenviormentss/gitdb/modules/streamio"
)

var (
	// ErrSizeMismatch reports a decompressed stream whose length does not
	// match the length carried by the object header; loose objects carry
	// their exact size, so a mismatch means corruption.
	ErrSizeMismatch = errors.New("gitdb: inflated object size mismatch")
)

// InflateBuffer decompresses a zlib stream into a buffer of exactly
// outLen bytes. It fails if the stream does not terminate cleanly or if
// the total number of bytes produced differs from outLen.
func InflateBuffer(in []byte, outLen int64) ([]byte, error) {
	zr, err := streamio.GetZlibReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer streamio.PutZlibReader(zr)

	out := make([]byte, outLen)
	if _, err := io.ReadFull(zr, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrSizeMismatch
		}
		return nil, err
	}
	// The stream must end exactly here.
	var one [1]byte
	if n, err := zr.Read(one[:]); n != 0 || err != io.EOF {
		return nil, ErrSizeMismatch
	}
	return out, nil
}
