// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/json"

	"github.com/fullstackenviormentss/gitdb/modules/strengthen"
)

// Type is the closed enumeration of object kinds. The numeric codes are
// fixed by the storage format and must never be reordered.
type Type int8

const (
	// AnyObject is an API sentinel meaning "do not type-check".
	AnyObject Type = -2
	// BadObject is the sentinel returned for unrecognized kind names.
	BadObject Type = -1

	ext1Object     Type = 0 // reserved
	CommitObject   Type = 1
	TreeObject     Type = 2
	BlobObject     Type = 3
	TagObject      Type = 4
	ext2Object     Type = 5 // reserved
	OFSDeltaObject Type = 6
	REFDeltaObject Type = 7
)

// typeTable maps each valid code to its canonical name and whether objects
// of that kind may be stored standalone (non-delta) under their own hash.
var typeTable = [8]struct {
	name  string
	loose bool
}{
	{"", false},       // 0 reserved
	{"commit", true},  // 1
	{"tree", true},    // 2
	{"blob", true},    // 3
	{"tag", true},     // 4
	{"", false},       // 5 reserved
	{"", false},       // 6 ofs-delta
	{"", false},       // 7 ref-delta
}

// Name returns the canonical lowercase name of the type, or the empty
// string for reserved, delta and out-of-range codes.
func (t Type) Name() string {
	if t < 0 || int(t) >= len(typeTable) {
		return ""
	}
	return typeTable[t].name
}

// IsLoose reports whether objects of this type may be stored standalone.
func (t Type) IsLoose() bool {
	if t < 0 || int(t) >= len(typeTable) {
		return false
	}
	return typeTable[t].loose
}

// TypeFromName converts a canonical name to its Type. Empty or unknown
// names map to BadObject.
func TypeFromName(s string) Type {
	if len(s) == 0 {
		return BadObject
	}
	for i := range typeTable {
		if typeTable[i].name == s {
			return Type(i)
		}
	}
	return BadObject
}

// String is the human readable form, it covers the sentinels and delta
// kinds that have no canonical loose name.
func (t Type) String() string {
	switch t {
	case AnyObject:
		return "any"
	case OFSDeltaObject:
		return "ofs-delta"
	case REFDeltaObject:
		return "ref-delta"
	case CommitObject, TreeObject, BlobObject, TagObject:
		return typeTable[t].name
	default:
		return "unknown"
	}
}

func (t Type) MarshalJSON() ([]byte, error) {
	return strengthen.BufferCat("\"", t.String(), "\""), nil
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = TypeFromName(s)
	return nil
}
