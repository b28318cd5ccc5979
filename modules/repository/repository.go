// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/odb"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

const (
	gitDirName     = ".git"
	objectsDirName = "objects"
	indexFileName  = "index"
	headFileName   = "HEAD"
)

var (
	// ErrNotARepository reports a path that does not hold a repository
	// layout.
	ErrNotARepository = errors.New("gitdb: not a repository")
)

// Options carries explicit overrides for each discovered path. Paths left
// empty are derived from GitDir; an absent WorkTree means the repository is
// bare.
type Options struct {
	GitDir     string
	ObjectsDir string
	IndexFile  string
	WorkTree   string
}

// Repository owns an object database, a typed object cache and the
// discovered filesystem layout. A repository is a single-actor handle: it
// performs no locking of its own.
type Repository struct {
	gitDir     string
	objectsDir string
	indexFile  string
	workTree   string
	bare       bool

	config *Config

	db *odb.DB

	// objects maps an identifier to the canonical in-memory typed object
	// for it. In-memory (never written) objects live outside this map.
	objects map[plumbing.Hash]Object
}

func isDir(path string) bool {
	si, err := os.Stat(path)
	return err == nil && si.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Open discovers a repository rooted at the given directory. A directory
// whose basename is ".git" (holding objects/ and HEAD) is a non-bare
// repository with an index and a working tree one level up; a directory
// holding objects/ and HEAD directly is bare.
func Open(path string) (*Repository, error) {
	if !isDir(path) {
		return nil, ErrNotARepository
	}
	gitDir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	objectsDir := filepath.Join(gitDir, objectsDirName)
	if !isDir(objectsDir) {
		return nil, ErrNotARepository
	}
	if !exists(filepath.Join(gitDir, headFileName)) {
		return nil, ErrNotARepository
	}

	r := &Repository{
		gitDir:     gitDir,
		objectsDir: objectsDir,
		bare:       true,
	}
	if filepath.Base(gitDir) == gitDirName {
		r.bare = false
		r.indexFile = filepath.Join(gitDir, indexFileName)
		r.workTree = filepath.Dir(gitDir)
	}
	return r.initialize()
}

// OpenEx opens a repository from explicit paths, deriving any the caller
// left empty from GitDir.
func OpenEx(opts *Options) (*Repository, error) {
	if opts == nil || !isDir(opts.GitDir) {
		return nil, ErrNotARepository
	}
	gitDir, err := filepath.Abs(opts.GitDir)
	if err != nil {
		return nil, err
	}

	objectsDir := opts.ObjectsDir
	if len(objectsDir) == 0 {
		objectsDir = filepath.Join(gitDir, objectsDirName)
	}
	if !isDir(objectsDir) {
		return nil, ErrNotARepository
	}

	r := &Repository{
		gitDir:     gitDir,
		objectsDir: objectsDir,
		workTree:   opts.WorkTree,
		bare:       len(opts.WorkTree) == 0,
	}
	switch {
	case len(opts.IndexFile) != 0:
		if !exists(opts.IndexFile) {
			return nil, ErrNotARepository
		}
		r.indexFile = opts.IndexFile
	case !r.bare:
		r.indexFile = filepath.Join(gitDir, indexFileName)
	}
	return r.initialize()
}

func (r *Repository) initialize() (*Repository, error) {
	config, err := LoadConfig(r.gitDir)
	if err != nil {
		return nil, err
	}
	r.config = config

	dbOpts := []odb.Option{
		odb.WithCompressionALGO(config.Core.Compression),
		odb.WithEnableLRU(config.Core.ReadCache),
	}
	if r.db, err = odb.Open(r.objectsDir, dbOpts...); err != nil {
		return nil, err
	}
	r.objects = make(map[plumbing.Hash]Object)
	return r, nil
}

// GitDir returns the repository directory.
func (r *Repository) GitDir() string { return r.gitDir }

// ObjectsDir returns the objects directory consumed by the backends.
func (r *Repository) ObjectsDir() string { return r.objectsDir }

// IndexFile returns the index path, empty for bare repositories.
func (r *Repository) IndexFile() string { return r.indexFile }

// WorkTree returns the working tree root, empty for bare repositories.
func (r *Repository) WorkTree() string { return r.workTree }

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() bool { return r.bare }

// Config returns the repository configuration.
func (r *Repository) Config() *Config { return r.config }

// Database returns the object database the repository reads and writes.
func (r *Repository) Database() *odb.DB { return r.db }

// NewObject allocates a typed object of the given kind. The object is born
// in-memory and modified; it enters the cache on its first successful
// write.
func (r *Repository) NewObject(kind object.Type) (Object, error) {
	o, err := allocObject(kind)
	if err != nil {
		return nil, err
	}
	h := o.header()
	h.repo = r
	h.kind = kind
	h.inMemory = true
	h.modified = true
	return o, nil
}

// Lookup returns the typed object stored under the given identifier. A
// cache hit returns the same instance handed out before; a miss reads the
// raw object, parses it and caches the result. When kind is not AnyObject
// and disagrees with the stored kind, ErrInvalidType is returned.
func (r *Repository) Lookup(oid plumbing.Hash, kind object.Type) (Object, error) {
	if o, ok := r.objects[oid]; ok {
		if kind != object.AnyObject && kind != o.Kind() {
			return nil, object.ErrInvalidType
		}
		return o, nil
	}

	raw, err := r.db.Read(oid)
	if err != nil {
		return nil, err
	}
	if kind != object.AnyObject && kind != raw.Type {
		return nil, object.ErrInvalidType
	}

	o, err := allocObject(raw.Type)
	if err != nil {
		return nil, err
	}
	h := o.header()
	h.repo = r
	h.oid = oid
	h.kind = raw.Type
	h.source.fill(raw.Data[:raw.Size])

	if err := o.parse(); err != nil {
		h.source.Close()
		o.clear()
		return nil, err
	}

	h.source.Close()
	r.objects[oid] = o
	return o, nil
}

// WriteObject re-serializes a modified object, stores it and re-keys the
// cache under the identifier the backend computed. Writing a clean object
// is a no-op.
//
// A failed serialization closes the source and leaves the object modified;
// a failed database write leaves the source open as well. Both are
// retryable.
func (r *Repository) WriteObject(o Object) error {
	h := o.header()
	if !h.modified {
		return nil
	}
	if h.repo != r {
		return fmt.Errorf("gitdb: object does not belong to this repository")
	}

	h.source.prepareWrite()
	if err := o.writeback(&h.source); err != nil {
		h.source.Close()
		return err
	}

	raw := &object.Raw{
		Type: h.kind,
		Size: int64(h.source.Len()),
		Data: h.source.Bytes(),
	}
	newID, err := r.db.Write(raw)
	if err != nil {
		return err
	}

	// Remove the old key before inserting the new one, so a re-entrant
	// observer sees exactly one of the two states. If another live
	// object already sits under the new identifier it is replaced.
	if !h.inMemory {
		if cur, ok := r.objects[h.oid]; ok && cur == o {
			delete(r.objects, h.oid)
		}
	}
	h.oid = newID
	r.objects[newID] = o

	h.modified = false
	h.inMemory = false
	h.source.Close()
	return nil
}

// FreeObject detaches the object from the cache and releases its parsed
// state. Using the object afterwards is invalid.
func (r *Repository) FreeObject(o Object) {
	h := o.header()
	h.source.Close()
	if !h.inMemory {
		if cur, ok := r.objects[h.oid]; ok && cur == o {
			delete(r.objects, h.oid)
		}
	}
	o.clear()
}

// OpenSource re-reads the object's raw bytes from the database into its
// source buffer. The object must have been written (not in-memory).
func (r *Repository) OpenSource(o Object) error {
	h := o.header()
	if h.inMemory {
		return fmt.Errorf("gitdb: in-memory object has no stored source")
	}
	if h.source.Open() {
		h.source.Close()
	}
	raw, err := r.db.Read(h.oid)
	if err != nil {
		return err
	}
	h.source.fill(raw.Data[:raw.Size])
	return nil
}

// CloseSource releases the object's source buffer if open.
func (r *Repository) CloseSource(o Object) {
	o.header().source.Close()
}

// SourceBytes exposes the raw payload currently held by the object's
// source buffer.
func (r *Repository) SourceBytes(o Object) []byte {
	return o.header().source.Bytes()
}

// Close frees every cached object, then the object database.
func (r *Repository) Close() error {
	for oid, o := range r.objects {
		o.header().source.Close()
		o.clear()
		delete(r.objects, oid)
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LookupCommit is a typed convenience over Lookup.
func (r *Repository) LookupCommit(oid plumbing.Hash) (*Commit, error) {
	o, err := r.Lookup(oid, object.CommitObject)
	if err != nil {
		return nil, err
	}
	return o.(*Commit), nil
}

// LookupTree is a typed convenience over Lookup.
func (r *Repository) LookupTree(oid plumbing.Hash) (*Tree, error) {
	o, err := r.Lookup(oid, object.TreeObject)
	if err != nil {
		return nil, err
	}
	return o.(*Tree), nil
}

// LookupBlob is a typed convenience over Lookup.
func (r *Repository) LookupBlob(oid plumbing.Hash) (*Blob, error) {
	o, err := r.Lookup(oid, object.BlobObject)
	if err != nil {
		return nil, err
	}
	return o.(*Blob), nil
}

// LookupTag is a typed convenience over Lookup.
func (r *Repository) LookupTag(oid plumbing.Hash) (*Tag, error) {
	o, err := r.Lookup(oid, object.TagObject)
	if err != nil {
		return nil, err
	}
	return o.(*Tag), nil
}

// NewCommit allocates an in-memory commit.
func (r *Repository) NewCommit() (*Commit, error) {
	o, err := r.NewObject(object.CommitObject)
	if err != nil {
		return nil, err
	}
	return o.(*Commit), nil
}

// NewTree allocates an in-memory tree.
func (r *Repository) NewTree() (*Tree, error) {
	o, err := r.NewObject(object.TreeObject)
	if err != nil {
		return nil, err
	}
	return o.(*Tree), nil
}

// NewBlob allocates an in-memory blob.
func (r *Repository) NewBlob() (*Blob, error) {
	o, err := r.NewObject(object.BlobObject)
	if err != nil {
		return nil, err
	}
	return o.(*Blob), nil
}

// NewTag allocates an in-memory tag.
func (r *Repository) NewTag() (*Tag, error) {
	o, err := r.NewObject(object.TagObject)
	if err != nil {
		return nil, err
	}
	return o.(*Tag), nil
}
