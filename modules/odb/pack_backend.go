// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package odb

import (
	"fmt"
	"os"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/odb/pack"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

// packBackend answers reads from the immutable pack/index pairs below the
// objects directory. It is read-only; writes always land in loose storage.
type packBackend struct {
	BackendBase

	packs pack.Set
}

// NewPackBackend scans "<objectsDir>/pack" and returns a backend over
// every readable pack/index pair found there. The objects directory must
// exist; the pack directory may not.
func NewPackBackend(objectsDir string) (Backend, error) {
	si, err := os.Stat(objectsDir)
	if err != nil {
		return nil, err
	}
	if !si.IsDir() {
		return nil, fmt.Errorf("gitdb: '%s' is not a directory", objectsDir)
	}
	packs, err := pack.NewSet(objectsDir)
	if err != nil {
		return nil, err
	}
	return &packBackend{
		BackendBase: NewBackendBase(PackPriority),
		packs:       packs,
	}, nil
}

func (p *packBackend) Read(oid plumbing.Hash) (*object.Raw, error) {
	return p.packs.Object(oid)
}

func (p *packBackend) ReadHeader(oid plumbing.Hash) (object.Type, int64, error) {
	return p.packs.Header(oid)
}

func (p *packBackend) Exists(oid plumbing.Hash) bool {
	return p.packs.Exists(oid) == nil
}

func (p *packBackend) Close() error {
	return p.packs.Close()
}
