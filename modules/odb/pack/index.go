// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package pack

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

const (
	// IndexVersionCurrent is the only index version this package writes and
	// reads.
	IndexVersionCurrent = 1

	// indexMagicWidth is the width of the magic header.
	indexMagicWidth = 4
	// indexVersionWidth is the width of the version following the magic
	// header.
	indexVersionWidth = 4
	// indexWidth is the total width of the header.
	indexWidth = indexMagicWidth + indexVersionWidth

	// indexFanoutEntries is the number of entries in the fanout table.
	indexFanoutEntries = 256
	// indexFanoutEntryWidth is the width of each entry in the fanout table.
	indexFanoutEntryWidth = 4
	// indexFanoutWidth is the width of the entire fanout table.
	indexFanoutWidth = indexFanoutEntries * indexFanoutEntryWidth

	// indexOffsetStart is the location of the first object name outside of
	// the header.
	indexOffsetStart = indexWidth + indexFanoutWidth

	// indexObjectOffsetWidth is the width of the pack offset stored per
	// object. Offsets are always 8 bytes wide; a pack never needs the
	// 31-bit small-offset escape hatch.
	indexObjectOffsetWidth = 8
)

var (
	indexMagic = [4]byte{0xff, 'G', 'D', 'I'}
)

/*
 * Index layout:
 * - 8 bytes of header (magic + version)
 * - 256 fanout entries, 4 bytes each
 * - 32-byte BLAKE3 name * nr, sorted
 * - 8-byte pack offset * nr, in name order
 */

// IndexEntry specifies data encoded into an entry in the pack index.
type IndexEntry struct {
	Pos int64
	// PackOffset is the number of bytes before the associated object in a
	// packfile.
	PackOffset uint64
}

// Index stores information about the location of objects in a corresponding
// packfile.
type Index struct {
	// fanout is the L1 fanout table stored in this index. For a given
	// index "i" into the array, the value stored at that index specifies
	// the number of objects in the packfile/index that sort
	// lexicographically at or below that leading byte.
	fanout []uint32

	// r is the underlying set of encoded data comprising this index file.
	r io.ReaderAt
}

// Count returns the number of objects in the packfile.
func (i *Index) Count() int {
	return int(i.fanout[255])
}

// Close closes the packfile index if the underlying data stream is
// closeable. If so, it returns any error involved in closing.
func (i *Index) Close() error {
	if close, ok := i.r.(io.Closer); ok {
		return close.Close()
	}
	return nil
}

// Entry returns an entry containing the offset of a given object name.
//
// Entry operates in O(log(n))-time in the worst case, where "n" is the
// number of objects that begin with the first byte of "name".
//
// If the entry cannot be found, (nil, errNotFound) will be returned. If
// there was an error searching for or parsing an entry, it will be returned
// as (nil, err).
func (i *Index) Entry(name plumbing.Hash) (*IndexEntry, error) {
	var last *bounds
	bounds := i.bounds(name)

	for bounds.Left() < bounds.Right() {
		if last.Equal(bounds) {
			// If the bounds are unchanged, that means either that
			// the object does not exist in the packfile, or the
			// fanout table is corrupt.
			//
			// Either way, we won't be able to find the object.
			// Return immediately to prevent infinite looping.
			return nil, errNotFound
		}
		last = bounds

		// Find the midpoint between the upper and lower bounds.
		mid := bounds.Left() + ((bounds.Right() - bounds.Left()) / 2)

		got, err := i.name(mid)
		if err != nil {
			return nil, err
		}

		if cmp := bytes.Compare(name[:], got[:]); cmp == 0 {
			return i.entry(mid)
		} else if cmp < 0 {
			// If the comparison is less than 0, we searched past
			// the desired object, so limit the upper bound of the
			// search to the midpoint.
			bounds = bounds.WithRight(mid)
		} else if cmp > 0 {
			// Likewise, if the comparison is greater than 0, we
			// searched below the desired object. Modify the bounds
			// accordingly.
			bounds = bounds.WithLeft(mid)
		}
	}

	return nil, errNotFound
}

// name returns the 32 byte BLAKE3 object name for the entry at offset "at".
func (i *Index) name(at int64) (oid plumbing.Hash, err error) {
	if _, err = i.r.ReadAt(oid[:], nameOffset(at)); err != nil {
		return
	}
	return
}

// entry parses and returns the full *IndexEntry located at the offset "at".
func (i *Index) entry(at int64) (*IndexEntry, error) {
	var offs [8]byte
	if _, err := i.r.ReadAt(offs[:], packOffsetOffset(at, int64(i.Count()))); err != nil {
		return nil, err
	}
	return &IndexEntry{PackOffset: binary.BigEndian.Uint64(offs[:]), Pos: at}, nil
}

// bounds returns the initial bounds for a given name using the fanout table
// to limit search results.
func (i *Index) bounds(name plumbing.Hash) *bounds {
	var left, right int64

	if name[0] == 0 {
		// If the lower bound is 0, there are no objects before it,
		// start at the beginning of the index file.
		left = 0
	} else {
		// Otherwise, make the lower bound the slot before the given
		// object.
		left = int64(i.fanout[name[0]-1])
	}

	if name[0] == 255 {
		// As above, if the upper bound is the max byte value, make the
		// upper bound the last object in the list.
		right = int64(i.Count())
	} else {
		// Otherwise, make the upper bound the end of the following
		// slot. The window is wider than the given slot alone, but
		// still holds every name that begins with its byte.
		right = int64(i.fanout[name[0]+1])
	}

	return newBounds(left, right)
}

// Names calls recv for every object name in the index, in sorted order.
func (i *Index) Names(recv func(oid plumbing.Hash) error) error {
	total := i.Count()
	for at := 0; at < total; at++ {
		oid, err := i.name(int64(at))
		if err != nil {
			return err
		}
		if err := recv(oid); err != nil {
			return err
		}
	}
	return nil
}

// nameOffset returns the offset of the object name given at "at".
func nameOffset(at int64) int64 {
	// Skip the packfile index header and the L1 fanout table, then skip
	// until the desired name in the sorted names table.
	return indexOffsetStart + (plumbing.HASH_DIGEST_SIZE * at)
}

// packOffsetOffset returns the offset of an object's pack offset given by
// "at".
func packOffsetOffset(at, total int64) int64 {
	// Skip the packfile index header, the L1 fanout table and the name
	// table, then skip until the desired index in the offsets table.
	return indexOffsetStart +
		(plumbing.HASH_DIGEST_SIZE * total) +
		(indexObjectOffsetWidth * at)
}

// DecodeIndex decodes an index whose underlying data is supplied by "r".
//
// DecodeIndex reads only the header and fanout table, and does not eagerly
// parse index entries.
func DecodeIndex(r io.ReaderAt) (*Index, error) {
	if err := decodeIndexHeader(r); err != nil {
		return nil, err
	}

	fanout, err := decodeIndexFanout(r, indexWidth)
	if err != nil {
		return nil, err
	}

	return &Index{
		fanout: fanout,

		r: r,
	}, nil
}

// decodeIndexHeader checks the magic and version of the index given by "r".
func decodeIndexHeader(r io.ReaderAt) error {
	hdr := make([]byte, 4)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return err
	}

	if !bytes.Equal(hdr, indexMagic[:]) {
		return errBadIndexHeader
	}
	versionBytes := make([]byte, 4)
	if _, err := r.ReadAt(versionBytes, 4); err != nil {
		return err
	}
	if version := binary.BigEndian.Uint32(versionBytes); version != IndexVersionCurrent {
		return &UnsupportedVersionErr{version}
	}
	return nil
}

// decodeIndexFanout decodes the fanout table given by "r" and beginning at
// the given offset.
func decodeIndexFanout(r io.ReaderAt, offset int64) ([]uint32, error) {
	b := make([]byte, indexFanoutWidth)
	if _, err := r.ReadAt(b, offset); err != nil {
		if err == io.EOF {
			return nil, ErrShortFanout
		}
		return nil, err
	}

	fanout := make([]uint32, indexFanoutEntries)
	for i := range fanout {
		fanout[i] = binary.BigEndian.Uint32(b[(i * indexFanoutEntryWidth):])
	}

	return fanout, nil
}
