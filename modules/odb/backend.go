// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"errors"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

var (
	// ErrBusy reports a backend that is already owned by a different
	// object database.
	ErrBusy = errors.New("gitdb: backend already attached to another object database")
)

// Backend is a storage provider plugged into a *DB. Read is the only
// required operation; the database discovers the optional capabilities
// below via type assertion and skips backends that lack them.
//
// Implementations embed BackendBase, which carries the dispatch priority
// and the owning-database back reference.
type Backend interface {
	// Read returns the raw object stored under the given identifier, or
	// an error satisfying plumbing.IsNoSuchObject when this backend does
	// not have it.
	Read(oid plumbing.Hash) (*object.Raw, error)

	Base() *BackendBase
}

// ExistenceChecker is implemented by backends that can answer existence
// queries without materializing the object.
type ExistenceChecker interface {
	Exists(oid plumbing.Hash) bool
}

// HeaderReader is implemented by backends that can answer kind and size
// cheaply, e.g. from an index, without inflating the payload.
type HeaderReader interface {
	ReadHeader(oid plumbing.Hash) (object.Type, int64, error)
}

// WritableBackend is implemented by backends that accept new objects. The
// backend computes and returns the stored identifier.
type WritableBackend interface {
	Write(raw *object.Raw) (plumbing.Hash, error)
}

// BackendBase is the bookkeeping every backend embeds: its dispatch
// priority and the database it is bound to. A backend belongs to at most
// one database at a time.
type BackendBase struct {
	priority int
	owner    *DB
}

func NewBackendBase(priority int) BackendBase {
	return BackendBase{priority: priority}
}

func (b *BackendBase) Priority() int { return b.priority }

func (b *BackendBase) Base() *BackendBase { return b }
