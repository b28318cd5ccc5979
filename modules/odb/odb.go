// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

const (
	DefaultCompressionALGO = "zlib"

	// LoosePriority and PackPriority order the backends constructed by
	// Open. Packed storage is indexed and cheaper to probe, so it wins.
	LoosePriority = 1
	PackPriority  = 2
)

// DB multiplexes reads and writes over a set of prioritized storage
// backends. Dispatch iterates backends in descending priority; the first
// backend that produces a result is authoritative.
type DB struct {
	// closed is a uint32 managed by sync/atomic's <X>Uint32 methods. It
	// yields a value of 0 if the *DB it is stored upon is open, and a
	// value of 1 if it is closed.
	closed uint32

	// backends is kept sorted by descending priority; ties keep
	// insertion order.
	backends []Backend

	compressionALGO string

	// lru optionally fronts reads with a lossy raw-object cache. Content
	// under a hash never changes, so a stale entry is impossible and an
	// evicted one only costs a re-read.
	lru       *ristretto.Cache[string, *object.Raw]
	enableLRU bool
}

type Option func(*DB)

func WithCompressionALGO(compressionALGO string) Option {
	return func(d *DB) {
		if len(compressionALGO) != 0 {
			d.compressionALGO = compressionALGO
		}
	}
}

func WithEnableLRU(enableLRU bool) Option {
	return func(d *DB) {
		d.enableLRU = enableLRU
	}
}

// New returns an empty database with no backends. Reads against it report
// not-found; writes report an unwritable database.
func New(opts ...Option) (*DB, error) {
	d := &DB{compressionALGO: DefaultCompressionALGO}
	for _, o := range opts {
		o(d)
	}
	if d.enableLRU {
		var err error
		if d.lru, err = ristretto.NewCache(&ristretto.Config[string, *object.Raw]{
			NumCounters: 100000,
			MaxCost:     64 << 20,
			BufferItems: 64,
		}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Open constructs a database over the given objects directory, attaching
// the loose backend and the pack backend. Failure of either factory is not
// fatal, the backend is simply not added; a database can end up with no
// backends at all.
func Open(objectsDir string, opts ...Option) (*DB, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if loose, err := NewLooseBackend(objectsDir, d.compressionALGO); err == nil {
		if err := d.AddBackend(loose); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	if packs, err := NewPackBackend(objectsDir); err == nil {
		if err := d.AddBackend(packs); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	return d, nil
}

// AddBackend binds the backend to this database and inserts it in priority
// position. A backend bound to a different database is refused with
// ErrBusy; re-adding one already bound here is a no-op.
func (d *DB) AddBackend(b Backend) error {
	base := b.Base()
	if base.owner != nil {
		if base.owner != d {
			return ErrBusy
		}
		return nil
	}
	base.owner = d
	d.backends = append(d.backends, b)
	sort.SliceStable(d.backends, func(i, j int) bool {
		return d.backends[i].Base().Priority() > d.backends[j].Base().Priority()
	})
	return nil
}

// Backends returns the dispatch order, highest priority first.
func (d *DB) Backends() []Backend {
	return d.backends
}

// Exists reports whether any backend has the given object. Backends that
// cannot answer existence queries are skipped.
func (d *DB) Exists(oid plumbing.Hash) bool {
	if d.enableLRU {
		if _, ok := d.lru.Get(oid.String()); ok {
			return true
		}
	}
	for _, b := range d.backends {
		if ec, ok := b.(ExistenceChecker); ok && ec.Exists(oid) {
			return true
		}
	}
	return false
}

// Read returns the raw object stored under the given identifier. Backends
// are tried in priority order; the first non-error result wins. When every
// backend fails, the last real error is preferred over a blanket not-found
// so corruption is not reported as absence.
//
// The returned Raw is shared with the read cache and must be treated as
// read-only.
func (d *DB) Read(oid plumbing.Hash) (*object.Raw, error) {
	if d.enableLRU {
		if raw, ok := d.lru.Get(oid.String()); ok {
			return raw, nil
		}
	}
	var lastErr error
	for _, b := range d.backends {
		raw, err := b.Read(oid)
		if err == nil {
			if d.enableLRU {
				_ = d.lru.Set(oid.String(), raw, raw.Size)
			}
			return raw, nil
		}
		if !plumbing.IsNoSuchObject(err) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, plumbing.NoSuchObject(oid)
}

// ReadHeader returns the kind and size of the object stored under the
// given identifier. Backends able to answer from an index do so cheaply;
// when none can, the object is read in full and its payload discarded, so
// the operation succeeds whenever Read would.
func (d *DB) ReadHeader(oid plumbing.Hash) (object.Type, int64, error) {
	for _, b := range d.backends {
		hr, ok := b.(HeaderReader)
		if !ok {
			continue
		}
		kind, size, err := hr.ReadHeader(oid)
		if err == nil {
			return kind, size, nil
		}
	}
	raw, err := d.Read(oid)
	if err != nil {
		return object.BadObject, 0, err
	}
	return raw.Type, raw.Size, nil
}

// Write stores the raw object in the first backend that accepts it and
// returns the identifier the backend computed. The façade never re-hashes.
func (d *DB) Write(raw *object.Raw) (plumbing.Hash, error) {
	var lastErr error
	for _, b := range d.backends {
		w, ok := b.(WritableBackend)
		if !ok {
			continue
		}
		oid, err := w.Write(raw)
		if err == nil {
			return oid, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return plumbing.ZeroHash, lastErr
	}
	return plumbing.ZeroHash, errors.New("gitdb: object database is not writable")
}

func closeSafe(a ...io.Closer) error {
	errs := make([]error, 0, len(a))
	for _, c := range a {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every backend, then the backend vector.
//
// If Close() has already been called, this function will return an error.
func (d *DB) Close() error {
	if !atomic.CompareAndSwapUint32(&d.closed, 0, 1) {
		return fmt.Errorf("gitdb: *DB already closed")
	}
	closers := make([]io.Closer, 0, len(d.backends))
	for _, b := range d.backends {
		if c, ok := b.(io.Closer); ok {
			closers = append(closers, c)
		}
	}
	d.backends = nil
	if d.lru != nil {
		d.lru.Close()
		d.lru = nil
	}
	return closeSafe(closers...)
}
