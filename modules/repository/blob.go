// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

package repository

type Blob struct {
	objectHeader

	Content []byte
}

// SetContent replaces the blob payload.
func (b *Blob) SetContent(content []byte) {
	b.Content = content
	b.markModified()
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Content))
}

func (b *Blob) parse() error {
	b.Content = make([]byte, b.source.Len())
	copy(b.Content, b.source.Bytes())
	return nil
}

func (b *Blob) writeback(s *Source) error {
	_, err := s.Write(b.Content)
	return err
}

func (b *Blob) clear() {
	b.Content = nil
}
