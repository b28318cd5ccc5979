// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/fullstackenviormentss/gitdb/modules/streamio"
)

type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
}

type objects []*Entry

func (o objects) Len() int           { return len(o) }
func (o objects) Less(i, j int) bool { return bytes.Compare(o[i].Hash[:], o[j].Hash[:]) < 0 }
func (o objects) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }

// Writer builds a pack/index pair below the given object database root.
// Objects are appended one at a time; Close patches the object count,
// names the pair after the pack checksum and writes the index.
type Writer struct {
	dir     string
	fd      *os.File
	bw      *bufio.Writer
	offset  uint64
	entries objects
}

// NewWriter creates a pack writer whose output lands in "<db>/pack".
func NewWriter(db string) (*Writer, error) {
	pd := filepath.Join(db, "pack")
	if err := os.MkdirAll(pd, 0755); err != nil {
		return nil, err
	}
	fd, err := os.CreateTemp(pd, "tmp-pack-*")
	if err != nil {
		return nil, err
	}
	w := &Writer{dir: pd, fd: fd, bw: bufio.NewWriter(fd), entries: make(objects, 0, 64)}
	if _, err := w.bw.Write(packMagic[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(w.bw, binary.BigEndian, uint32(PackVersionCurrent)); err != nil {
		return nil, err
	}
	// Entry count is unknown until Close; reserve the slot.
	if err := binary.Write(w.bw, binary.BigEndian, uint32(0)); err != nil {
		return nil, err
	}
	w.offset = packHeaderWidth
	return w, nil
}

// Append stores one raw object in the pack and returns its identifier.
func (w *Writer) Append(raw *object.Raw) (plumbing.Hash, error) {
	oid, err := raw.Hash()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	buf := streamio.GetBytesBuffer()
	defer streamio.PutBytesBuffer(buf)
	zw := streamio.GetZlibWriter(buf)
	if _, err := zw.Write(raw.Data[:raw.Size]); err != nil {
		streamio.PutZlibWriter(zw)
		return plumbing.ZeroHash, err
	}
	streamio.PutZlibWriter(zw)

	var hdr [entryHeaderWidth]byte
	hdr[0] = byte(raw.Type)
	binary.BigEndian.PutUint64(hdr[1:9], uint64(raw.Size))
	binary.BigEndian.PutUint32(hdr[9:13], uint32(buf.Len()))
	if _, err := w.bw.Write(hdr[:]); err != nil {
		return plumbing.ZeroHash, err
	}
	compressed := int64(buf.Len())
	if _, err := buf.WriteTo(w.bw); err != nil {
		return plumbing.ZeroHash, err
	}

	w.entries = append(w.entries, &Entry{Hash: oid, Offset: w.offset})
	w.offset += entryHeaderWidth + uint64(compressed)
	return oid, nil
}

// Close finalizes the pack and writes the accompanying index. The pair is
// named "pack-<checksum>.pack" / "pack-<checksum>.idx" where the checksum
// is the BLAKE3 hash of the finished pack contents.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.discard()
		return err
	}
	// Patch the number of entries now that it is known.
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(w.entries)))
	if _, err := w.fd.WriteAt(count[:], 8); err != nil {
		w.discard()
		return err
	}
	if _, err := w.fd.Seek(0, io.SeekStart); err != nil {
		w.discard()
		return err
	}
	hasher := plumbing.NewHasher()
	if _, err := streamio.Copy(hasher, w.fd); err != nil {
		w.discard()
		return err
	}
	sum := hasher.Sum()
	name := w.fd.Name()
	if err := w.fd.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	base := filepath.Join(w.dir, fmt.Sprintf("pack-%s", sum))
	if err := w.writeIndex(base + ".idx"); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, base+".pack"); err != nil {
		_ = os.Remove(name)
		_ = os.Remove(base + ".idx")
		return err
	}
	return nil
}

func (w *Writer) discard() {
	name := w.fd.Name()
	_ = w.fd.Close()
	_ = os.Remove(name)
}

func (w *Writer) writeIndex(path string) error {
	sort.Sort(w.entries)

	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fd)
	if _, err := bw.Write(indexMagic[:]); err != nil {
		_ = fd.Close()
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(IndexVersionCurrent)); err != nil {
		_ = fd.Close()
		return err
	}

	var fanout [indexFanoutEntries]uint32
	for _, e := range w.entries {
		fanout[e.Hash[0]]++
	}
	var cumulative uint32
	for i := range fanout {
		cumulative += fanout[i]
		fanout[i] = cumulative
	}
	for _, n := range fanout {
		if err := binary.Write(bw, binary.BigEndian, n); err != nil {
			_ = fd.Close()
			return err
		}
	}
	for _, e := range w.entries {
		if _, err := bw.Write(e.Hash[:]); err != nil {
			_ = fd.Close()
			return err
		}
	}
	for _, e := range w.entries {
		if err := binary.Write(bw, binary.BigEndian, e.Offset); err != nil {
			_ = fd.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = fd.Close()
		return err
	}
	return fd.Close()
}
