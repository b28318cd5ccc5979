// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

// Object is the typed view of a repository object. Concrete kinds
// (*Commit, *Tree, *Blob, *Tag) embed objectHeader and implement the
// kind-specific parser and serializer.
//
// Objects obtained from Lookup are owned by the repository; callers must
// not retire them except through FreeObject or the repository's Close.
type Object interface {
	// Kind returns the object kind.
	Kind() object.Type
	// ID returns the object identifier. The second return is false for
	// an in-memory object that has never been written; such an object
	// has no canonical identifier yet.
	ID() (plumbing.Hash, bool)
	// Owner returns the repository this object belongs to.
	Owner() *Repository
	// Modified reports whether the object has unwritten changes.
	Modified() bool

	header() *objectHeader
	parse() error
	writeback(s *Source) error
	clear()
}

// objectHeader is the state shared by every typed object: the owning
// repository, the current identifier, the raw source buffer and the
// write-back flags.
type objectHeader struct {
	repo     *Repository
	oid      plumbing.Hash
	kind     object.Type
	source   Source
	modified bool
	inMemory bool
}

func (h *objectHeader) header() *objectHeader { return h }

func (h *objectHeader) Kind() object.Type { return h.kind }

func (h *objectHeader) Owner() *Repository { return h.repo }

func (h *objectHeader) Modified() bool { return h.modified }

// ID returns the identifier the object is cached under. An in-memory
// object has no meaningful identifier until its first successful write.
func (h *objectHeader) ID() (plumbing.Hash, bool) {
	if h.inMemory {
		return plumbing.ZeroHash, false
	}
	return h.oid, true
}

// markModified flags the object for write-back.
func (h *objectHeader) markModified() {
	h.modified = true
}

// allocObject returns a zeroed typed object for the given kind. Kinds
// outside commit/tree/blob/tag are rejected.
func allocObject(kind object.Type) (Object, error) {
	switch kind {
	case object.CommitObject:
		return new(Commit), nil
	case object.TreeObject:
		return new(Tree), nil
	case object.BlobObject:
		return new(Blob), nil
	case object.TagObject:
		return new(Tag), nil
	default:
		return nil, object.ErrInvalidType
	}
}
