// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

var (
	// ErrInvalidType reports a kind that disagrees with the caller's
	// expectation, or an operation attempted on a non-loose kind.
	ErrInvalidType = errors.New("gitdb: invalid object type")
)

// Raw is an object below the compression layer: kind, length and payload.
// Data holds exactly Size bytes once populated.
type Raw struct {
	Type Type
	Size int64
	Data []byte
}

// headerBudget accommodates the longest kind name, a space, the decimal
// digits of any 64-bit length and the trailing NUL.
const headerBudget = 64

// FormatHeader renders the canonical framing header
// "<name> <decimal-length>\x00" for a loose object.
func FormatHeader(t Type, size int64) []byte {
	hdr := make([]byte, 0, headerBudget)
	hdr = append(hdr, t.Name()...)
	hdr = append(hdr, ' ')
	hdr = strconv.AppendInt(hdr, size, 10)
	hdr = append(hdr, 0)
	return hdr
}

// Hash computes the object identifier over the canonical header followed by
// the payload. Only loose kinds have a defined identifier.
func (r *Raw) Hash() (plumbing.Hash, error) {
	if !r.Type.IsLoose() {
		return plumbing.ZeroHash, fmt.Errorf("gitdb: cannot hash object of type %s", r.Type)
	}
	if r.Data == nil && r.Size != 0 {
		return plumbing.ZeroHash, fmt.Errorf("gitdb: raw object of size %d has no payload", r.Size)
	}
	h := plumbing.NewHasher()
	_, _ = h.Write(FormatHeader(r.Type, r.Size))
	if r.Size > 0 {
		_, _ = h.Write(r.Data[:r.Size])
	}
	return h.Sum(), nil
}
