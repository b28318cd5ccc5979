// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package odb

import (
	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

// memoryBackend is a writable backend that holds everything in a map. It
// backs tests and staging areas that never touch disk.
type memoryBackend struct {
	BackendBase

	fs map[plumbing.Hash]*object.Raw
}

// NewMemoryBackend returns a memory backend at the given priority,
// initialized with the given objects (may be nil).
func NewMemoryBackend(priority int, fs map[plumbing.Hash]*object.Raw) Backend {
	if fs == nil {
		fs = make(map[plumbing.Hash]*object.Raw)
	}
	return &memoryBackend{
		BackendBase: NewBackendBase(priority),
		fs:          fs,
	}
}

func (m *memoryBackend) Read(oid plumbing.Hash) (*object.Raw, error) {
	raw, ok := m.fs[oid]
	if !ok {
		return nil, plumbing.NoSuchObject(oid)
	}
	return raw, nil
}

func (m *memoryBackend) ReadHeader(oid plumbing.Hash) (object.Type, int64, error) {
	raw, ok := m.fs[oid]
	if !ok {
		return object.BadObject, 0, plumbing.NoSuchObject(oid)
	}
	return raw.Type, raw.Size, nil
}

func (m *memoryBackend) Exists(oid plumbing.Hash) bool {
	_, ok := m.fs[oid]
	return ok
}

func (m *memoryBackend) Write(raw *object.Raw) (plumbing.Hash, error) {
	oid, err := raw.Hash()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	data := make([]byte, raw.Size)
	copy(data, raw.Data[:raw.Size])
	m.fs[oid] = &object.Raw{Type: raw.Type, Size: raw.Size, Data: data}
	return oid, nil
}
