// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"errors"
	"fmt"
)

// sourceBaseSize is the initial capacity of a write buffer; it doubles as
// needed from there.
const sourceBaseSize = 4096

var (
	errSourceClosed = errors.New("gitdb: object source is not open")
)

// Source is the growable byte buffer attached to a typed object. It holds
// the raw payload read from the object database, and collects the bytes a
// serializer produces during write-back.
type Source struct {
	data    []byte
	written int
	open    bool
}

// prepareWrite resets the source to an empty open buffer ready to receive
// serializer output.
func (s *Source) prepareWrite() {
	s.data = make([]byte, sourceBaseSize)
	s.written = 0
	s.open = true
}

// fill loads a copy of the given payload and marks the source open.
func (s *Source) fill(payload []byte) {
	s.data = make([]byte, len(payload))
	copy(s.data, payload)
	s.written = len(s.data)
	s.open = true
}

// resize doubles the buffer until written+need fits strictly below the new
// capacity.
func (s *Source) resize(need int) {
	size := len(s.data)
	if size == 0 {
		size = sourceBaseSize
	}
	for s.written+need >= size {
		size *= 2
	}
	data := make([]byte, size)
	copy(data, s.data[:s.written])
	s.data = data
}

// Write appends the given bytes, growing the buffer as needed. It
// implements io.Writer and never fails on an open source.
func (s *Source) Write(p []byte) (int, error) {
	if !s.open {
		return 0, errSourceClosed
	}
	if s.written+len(p) >= len(s.data) {
		s.resize(len(p))
	}
	copy(s.data[s.written:], p)
	s.written += len(p)
	return len(p), nil
}

// Printf appends formatted output to the buffer.
func (s *Source) Printf(format string, a ...any) error {
	if !s.open {
		return errSourceClosed
	}
	_, err := fmt.Fprintf(s, format, a...)
	return err
}

// Bytes returns the written contents. The slice aliases the buffer and is
// only valid until the next write or close.
func (s *Source) Bytes() []byte {
	return s.data[:s.written]
}

// Len returns the number of written bytes.
func (s *Source) Len() int {
	return s.written
}

// Open reports whether the source currently holds a buffer.
func (s *Source) Open() bool {
	return s.open
}

// Close releases the buffer if open.
func (s *Source) Close() {
	s.data = nil
	s.written = 0
	s.open = false
}
