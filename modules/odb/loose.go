// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/fullstackenviormentss/gitdb/modules/streamio"
)

type CompressMethod uint16

const (
	ZLIB CompressMethod = 0
	ZSTD CompressMethod = 1
)

func fromCompressionALGO(compressionALGO string) CompressMethod {
	switch strings.ToLower(compressionALGO) {
	case "zstd":
		return ZSTD
	default: // zlib
	}
	return ZLIB
}

const (
	// ZSTD_MAGIC: https://github.com/facebook/zstd/blob/dev/doc/zstd_compression_format.md#frames
	ZSTD_MAGIC = 0xFD2FB528
)

func isZstdMagic(magic [4]byte) bool {
	return binary.LittleEndian.Uint32(magic[:]) == ZSTD_MAGIC
}

// looseBackend stores each object as a standalone compressed file below the
// objects directory, named by its identifier. The canonical framing
// "<kind> <size>\x00" precedes the payload inside the compressed stream, so
// a file is self-describing regardless of which index knows about it.
type looseBackend struct {
	BackendBase

	// root is the top level objects directory's path on disk.
	root string

	// incoming receives files while they are written; finished objects
	// are renamed into place.
	incoming       string
	selectedMethod CompressMethod
}

// NewLooseBackend returns a loose-file backend rooted at the given objects
// directory. The directory must exist.
func NewLooseBackend(objectsDir, compressionALGO string) (Backend, error) {
	si, err := os.Stat(objectsDir)
	if err != nil {
		return nil, err
	}
	if !si.IsDir() {
		return nil, fmt.Errorf("gitdb: '%s' is not a directory", objectsDir)
	}
	return &looseBackend{
		BackendBase:    NewBackendBase(LoosePriority),
		root:           objectsDir,
		incoming:       filepath.Join(objectsDir, "incoming"),
		selectedMethod: fromCompressionALGO(compressionALGO),
	}, nil
}

// path returns the path on disk to the object given by the OID, below the
// objects directory exactly as it was passed to NewLooseBackend.
func (so *looseBackend) path(oid plumbing.Hash) string {
	encoded := oid.String()
	return filepath.Join(so.root, encoded[:2], encoded[2:4], encoded)
}

func (so *looseBackend) Exists(oid plumbing.Hash) bool {
	_, err := os.Stat(so.path(oid))
	return err == nil
}

// open returns a reader over the decompressed contents of the file at
// path, sniffing the compression method from the leading magic.
func (so *looseBackend) open(path string) (io.Reader, func(), error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(fd, magic[:]); err != nil {
		_ = fd.Close()
		return nil, nil, err
	}
	restored := io.MultiReader(bytes.NewReader(magic[:]), fd)
	if isZstdMagic(magic) {
		zr, err := streamio.GetZstdReader(restored)
		if err != nil {
			_ = fd.Close()
			return nil, nil, err
		}
		return zr, func() {
			streamio.PutZstdReader(zr)
			_ = fd.Close()
		}, nil
	}
	zr, err := streamio.GetZlibReader(restored)
	if err != nil {
		_ = fd.Close()
		return nil, nil, err
	}
	return zr, func() {
		streamio.PutZlibReader(zr)
		_ = fd.Close()
	}, nil
}

// readHeader consumes the canonical framing header from r and returns the
// kind and payload size.
func readHeader(r *bufio.Reader) (object.Type, int64, error) {
	line, err := r.ReadString(0)
	if err != nil {
		return object.BadObject, 0, err
	}
	name, sizeText, ok := strings.Cut(strings.TrimSuffix(line, "\x00"), " ")
	if !ok {
		return object.BadObject, 0, fmt.Errorf("gitdb: malformed object header %q", line)
	}
	kind := object.TypeFromName(name)
	if !kind.IsLoose() {
		return object.BadObject, 0, fmt.Errorf("gitdb: object header has kind %q", name)
	}
	size, err := strconv.ParseInt(sizeText, 10, 64)
	if err != nil || size < 0 {
		return object.BadObject, 0, fmt.Errorf("gitdb: object header has size %q", sizeText)
	}
	return kind, size, nil
}

func (so *looseBackend) Read(oid plumbing.Hash) (*object.Raw, error) {
	r, done, err := so.open(so.path(oid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.NoSuchObject(oid)
		}
		return nil, err
	}
	defer done()
	br := streamio.GetBufioReader(r)
	defer streamio.PutBufioReader(br)
	kind, size, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, ErrSizeMismatch
	}
	// An object carries its exact size; trailing bytes mean corruption.
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, ErrSizeMismatch
	}
	return &object.Raw{Type: kind, Size: size, Data: data}, nil
}

func (so *looseBackend) ReadHeader(oid plumbing.Hash) (object.Type, int64, error) {
	r, done, err := so.open(so.path(oid))
	if err != nil {
		if os.IsNotExist(err) {
			return object.BadObject, 0, plumbing.NoSuchObject(oid)
		}
		return object.BadObject, 0, err
	}
	defer done()
	br := streamio.GetBufioReader(r)
	defer streamio.PutBufioReader(br)
	return readHeader(br)
}

func (so *looseBackend) Write(raw *object.Raw) (plumbing.Hash, error) {
	oid, err := raw.Hash()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	saveTo := so.path(oid)
	if _, err := os.Stat(saveTo); err == nil {
		// Already present; content under a hash never changes.
		return oid, nil
	}
	if err := os.MkdirAll(so.incoming, 0755); err != nil {
		return plumbing.ZeroHash, err
	}
	fd, err := os.CreateTemp(so.incoming, oid.String()+".*")
	if err != nil {
		return plumbing.ZeroHash, err
	}
	name := fd.Name()
	if err := so.compressTo(fd, raw); err != nil {
		_ = fd.Close()
		_ = os.Remove(name)
		return plumbing.ZeroHash, err
	}
	if err := fd.Close(); err != nil {
		_ = os.Remove(name)
		return plumbing.ZeroHash, err
	}
	if err := os.MkdirAll(filepath.Dir(saveTo), 0755); err != nil {
		_ = os.Remove(name)
		return plumbing.ZeroHash, err
	}
	if err := os.Rename(name, saveTo); err != nil {
		_ = os.Remove(name)
		return plumbing.ZeroHash, err
	}
	_ = os.Chmod(saveTo, 0444) // objects are immutable
	return oid, nil
}

func (so *looseBackend) compressTo(fd *os.File, raw *object.Raw) error {
	hdr := object.FormatHeader(raw.Type, raw.Size)
	switch so.selectedMethod {
	case ZSTD:
		zw := streamio.GetZstdWriter(fd)
		defer streamio.PutZstdWriter(zw)
		if _, err := zw.Write(hdr); err != nil {
			return err
		}
		_, err := zw.Write(raw.Data[:raw.Size])
		return err
	default:
		zw := streamio.GetZlibWriter(fd)
		defer streamio.PutZlibWriter(zw)
		if _, err := zw.Write(hdr); err != nil {
			return err
		}
		_, err := zw.Write(raw.Data[:raw.Size])
		return err
	}
}

// Root gives the objects directory the loose backend was created with; a
// relative path is returned as it was given.
func (so *looseBackend) Root() string {
	return so.root
}

func (so *looseBackend) Close() error {
	return nil
}
