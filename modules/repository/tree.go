// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

// FileMode is the mode of a tree entry, encoded in octal on the wire.
type FileMode uint32

const (
	ModeTree       FileMode = 0040000
	ModeBlob       FileMode = 0100644
	ModeExecutable FileMode = 0100755
	ModeSymlink    FileMode = 0120000
)

func (m FileMode) IsDir() bool {
	return m == ModeTree
}

func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// TreeEntry represents one name in a tree: a mode, a name and the
// identifier of the object the name refers to.
type TreeEntry struct {
	Mode FileMode
	Name string
	ID   plumbing.Hash
}

// sortName mirrors the canonical tree ordering: directories sort as if
// their name ended in a slash.
func (e *TreeEntry) sortName() string {
	if e.Mode.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

type Tree struct {
	objectHeader

	Entries []*TreeEntry
}

// AddEntry inserts an entry; ordering is established at write time.
func (t *Tree) AddEntry(name string, oid plumbing.Hash, mode FileMode) {
	t.Entries = append(t.Entries, &TreeEntry{Mode: mode, Name: name, ID: oid})
	t.markModified()
}

// RemoveEntry drops the entry with the given name, if present.
func (t *Tree) RemoveEntry(name string) {
	for i, e := range t.Entries {
		if e.Name == name {
			t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
			t.markModified()
			return
		}
	}
}

// Find returns the entry with the given name, or nil.
func (t *Tree) Find(name string) *TreeEntry {
	for _, e := range t.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// parse decodes the binary tree grammar from the source buffer: for each
// entry an octal mode, a space, the name, a NUL and the raw identifier.
func (t *Tree) parse() error {
	data := t.source.Bytes()
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return fmt.Errorf("gitdb: malformed tree entry")
		}
		mode, err := strconv.ParseUint(string(data[:sp]), 8, 32)
		if err != nil {
			return fmt.Errorf("gitdb: malformed tree entry mode: %w", err)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return fmt.Errorf("gitdb: malformed tree entry name")
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < plumbing.HASH_DIGEST_SIZE {
			return fmt.Errorf("gitdb: truncated tree entry for '%s'", name)
		}
		var oid plumbing.Hash
		copy(oid[:], data[:plumbing.HASH_DIGEST_SIZE])
		data = data[plumbing.HASH_DIGEST_SIZE:]

		t.Entries = append(t.Entries, &TreeEntry{
			Mode: FileMode(mode),
			Name: name,
			ID:   oid,
		})
	}
	return nil
}

// writeback encodes the entries in canonical order.
func (t *Tree) writeback(s *Source) error {
	entries := make([]*TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sortName() < entries[j].sortName()
	})
	for _, e := range entries {
		if err := s.Printf("%o %s", uint32(e.Mode), e.Name); err != nil {
			return err
		}
		if _, err := s.Write([]byte{0}); err != nil {
			return err
		}
		if _, err := s.Write(e.ID[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) clear() {
	t.Entries = nil
}
