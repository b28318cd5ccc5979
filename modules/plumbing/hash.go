// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package plumbing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/fullstackenviormentss/gitdb/modules/strengthen"
	"github.com/zeebo/blake3"
)

const (
	HASH_DIGEST_SIZE = 32
	HASH_HEX_SIZE    = HASH_DIGEST_SIZE * 2
)

// Hash is a BLAKE3 object identifier. Identifiers are compared bytewise
// and rendered as lowercase hex.
type Hash [HASH_DIGEST_SIZE]byte

// ZeroHash is Hash with value zero
var ZeroHash Hash

// NewHash returns a new Hash from a hexadecimal representation. Malformed
// input yields ZeroHash; use NewHashEx when the input is untrusted.
func NewHash(s string) Hash {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != HASH_DIGEST_SIZE {
		return ZeroHash
	}
	copy(h[:], b)
	return h
}

// NewHashEx validates the hexadecimal form before converting it.
func NewHashEx(s string) (Hash, error) {
	if !ValidateHashHex(s) {
		return ZeroHash, fmt.Errorf("gitdb: '%s' not a valid object name", s)
	}
	return NewHash(s), nil
}

func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// ValidateHashHex returns true if the given string is a full-width
// hexadecimal object name.
func ValidateHashHex(s string) bool {
	if len(s) != HASH_HEX_SIZE {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Shorten returns the number of leading bytes that uniquely distinguish
// the hash from its zero-padded tail, never fewer than four.
func (h Hash) Shorten() int {
	i := HASH_DIGEST_SIZE - 1
	for ; i >= 4; i-- {
		if h[i] != 0 {
			return i + 1
		}
	}
	return i + 1
}

// Prefix renders the shortened form, handy for messages to humans.
func (h Hash) Prefix() string {
	return hex.EncodeToString(h[:h.Shorten()])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return strengthen.BufferCat("\"", h.String(), "\""), nil
}

func (h *Hash) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	oid, err := NewHashEx(s)
	if err != nil {
		return err
	}
	*h = oid
	return nil
}

// TOML
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	oid, err := NewHashEx(string(text))
	if err != nil {
		return err
	}
	*h = oid
	return nil
}

// Hasher accumulates object content into an identifier.
type Hasher struct {
	hash.Hash
}

func NewHasher() Hasher {
	return Hasher{Hash: blake3.New()}
}

func (h Hasher) Sum() (hash Hash) {
	copy(hash[:], h.Hash.Sum(nil))
	return
}
