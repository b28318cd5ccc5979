// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package pack

import (
	"errors"
	"fmt"
)

// UnsupportedVersionErr is a type implementing 'error' which indicates a
// the presence of an unsupported packfile version.
type UnsupportedVersionErr struct {
	// Got is the unsupported version that was detected.
	Got uint32
}

// Error implements 'error.Error()'.
func (u *UnsupportedVersionErr) Error() string {
	return fmt.Sprintf("gitdb: unsupported pack version: %d", u.Got)
}

var (
	// errNotFound is an error returned by Index.Entry() when an object
	// cannot be found in the index.
	errNotFound = errors.New("gitdb: object not found in index")

	errBadPackHeader  = errors.New("gitdb: bad pack header")
	errBadIndexHeader = errors.New("gitdb: bad index header")

	// ErrShortFanout is an error representing situations where the entire
	// fanout table could not be read, and is thus too short.
	ErrShortFanout = errors.New("gitdb: too short fanout table")
)

// IsNotFound returns whether a given error represents a missing object in
// the index.
func IsNotFound(err error) bool {
	return err == errNotFound
}
