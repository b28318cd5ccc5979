// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/fullstackenviormentss/gitdb/modules/streamio"
)

const (
	// PackVersionCurrent is the only pack version this package writes and
	// reads.
	PackVersionCurrent = 1

	// packHeaderWidth is magic + version + object count.
	packHeaderWidth = 12

	// entryHeaderWidth is the per-object header stored in the pack: a
	// 1-byte kind code, the 8-byte uncompressed size and the 4-byte
	// compressed length of the payload that follows.
	entryHeaderWidth = 13
)

var (
	packMagic = [4]byte{0xff, 'G', 'D', 'P'}
)

// Packfile encapsulates read access to all of the objects encoded in a
// single packfile. Entries are stored whole (no delta chains); the entry
// header carries the kind and sizes so header-only reads never touch the
// compressed payload.
type Packfile struct {
	// Version is the version of the packfile.
	Version uint32
	// Objects is the total number of objects in the packfile.
	Objects uint32
	// idx is the corresponding "pack-*.idx" file giving the positions of
	// objects in this packfile.
	idx *Index

	// r is an io.ReaderAt that allows read access to the packfile itself.
	r io.ReaderAt
}

// Close closes the packfile and its index if the underlying data streams are
// closeable. If so, it returns any error involved in closing.
func (p *Packfile) Close() error {
	var iErr error
	if p.idx != nil {
		iErr = p.idx.Close()
	}

	if close, ok := p.r.(io.Closer); ok {
		return close.Close()
	}
	return iErr
}

func (p *Packfile) Exists(name plumbing.Hash) error {
	if _, err := p.idx.Entry(name); err != nil {
		if !IsNotFound(err) {
			err = fmt.Errorf("gitdb: could not load index: %s", err)
		}
		return err
	}
	return nil
}

// Object returns the full raw object stored under the given name.
func (p *Packfile) Object(name plumbing.Hash) (*object.Raw, error) {
	entry, err := p.idx.Entry(name)
	if err != nil {
		if !IsNotFound(err) {
			err = fmt.Errorf("gitdb: could not load index: %s", err)
		}
		return nil, err
	}
	return p.find(int64(entry.PackOffset))
}

// Header returns the kind and uncompressed size of the object stored under
// the given name without inflating its payload.
func (p *Packfile) Header(name plumbing.Hash) (object.Type, int64, error) {
	entry, err := p.idx.Entry(name)
	if err != nil {
		if !IsNotFound(err) {
			err = fmt.Errorf("gitdb: could not load index: %s", err)
		}
		return object.BadObject, 0, err
	}
	kind, size, _, err := p.entryHeader(int64(entry.PackOffset))
	return kind, size, err
}

func (p *Packfile) entryHeader(offset int64) (object.Type, int64, int64, error) {
	var hdr [entryHeaderWidth]byte
	if _, err := p.r.ReadAt(hdr[:], offset); err != nil {
		return object.BadObject, 0, 0, err
	}
	kind := object.Type(hdr[0])
	size := int64(binary.BigEndian.Uint64(hdr[1:9]))
	clen := int64(binary.BigEndian.Uint32(hdr[9:13]))
	if !kind.IsLoose() {
		return object.BadObject, 0, 0, fmt.Errorf("gitdb: pack entry at %d has kind %d", offset, hdr[0])
	}
	return kind, size, clen, nil
}

func (p *Packfile) find(offset int64) (*object.Raw, error) {
	kind, size, clen, err := p.entryHeader(offset)
	if err != nil {
		return nil, err
	}
	zr, err := streamio.GetZlibReader(NewOffsetReader(p.r, offset+entryHeaderWidth, clen))
	if err != nil {
		return nil, err
	}
	defer streamio.PutZlibReader(zr)

	data := make([]byte, size)
	if _, err := io.ReadFull(zr, data); err != nil {
		return nil, err
	}
	return &object.Raw{Type: kind, Size: size, Data: data}, nil
}

// DecodePackfile opens the packfile given by the io.ReaderAt "r" for
// reading. It does no reading beyond the header.
//
// If the header is malformed, or otherwise cannot be read, an error will be
// returned without a corresponding packfile.
func DecodePackfile(r io.ReaderAt) (*Packfile, error) {
	header := make([]byte, packHeaderWidth)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, err
	}

	if !bytes.Equal(header[0:4], packMagic[:]) {
		return nil, errBadPackHeader
	}

	version := binary.BigEndian.Uint32(header[4:])
	if version != PackVersionCurrent {
		return nil, &UnsupportedVersionErr{version}
	}
	objects := binary.BigEndian.Uint32(header[8:])

	return &Packfile{
		Version: version,
		Objects: objects,

		r: r,
	}, nil
}
