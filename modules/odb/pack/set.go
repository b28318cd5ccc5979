// Copyright (c) 2017- GitHub, Inc. and Git LFS contributors
// SPDX-License-Identifier: MIT

package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
)

// Set answers object queries over a collection of packfiles.
type Set interface {
	Object(name plumbing.Hash) (*object.Raw, error)
	Header(name plumbing.Hash) (object.Type, int64, error)
	Exists(name plumbing.Hash) error
	Close() error
}

type set struct {
	// m maps the leading byte of an object name to a set of packfiles
	// that might contain that object, in order of which packfile is most
	// likely to contain that object.
	m map[byte][]*Packfile

	// closeFn is a function that is run by Close(), designated to free
	// resources held by the *Set, like open packfiles.
	closeFn func() error
}

var (
	_ Set = &set{}
)

// Close closes all open packfiles, returning an error if one was
// encountered.
func (s *set) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

func (s *set) Object(name plumbing.Hash) (*object.Raw, error) {
	for _, pack := range s.m[name[0]] {
		o, err := pack.Object(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return o, nil
	}
	return nil, plumbing.NoSuchObject(name)
}

func (s *set) Header(name plumbing.Hash) (object.Type, int64, error) {
	for _, pack := range s.m[name[0]] {
		kind, size, err := pack.Header(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return object.BadObject, 0, err
		}
		return kind, size, nil
	}
	return object.BadObject, 0, plumbing.NoSuchObject(name)
}

func (s *set) Exists(name plumbing.Hash) error {
	for _, pack := range s.m[name[0]] {
		err := pack.Exists(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return err
		}
		return nil
	}
	return plumbing.NoSuchObject(name)
}

// packsConcat creates a new *Set from the given packfiles.
func packsConcat(packs ...*Packfile) Set {
	m := make(map[byte][]*Packfile)

	for i := range 256 {
		n := byte(i)

		for j := range packs {
			pack := packs[j]

			var count uint32
			if n == 0 {
				count = pack.idx.fanout[n]
			} else {
				count = pack.idx.fanout[n] - pack.idx.fanout[n-1]
			}

			if count > 0 {
				m[n] = append(m[n], pack)
			}
		}

		sort.Slice(m[n], func(i, j int) bool {
			ni := m[n][i].idx.fanout[n]
			nj := m[n][j].idx.fanout[n]

			return ni > nj
		})
	}

	return &set{
		m: m,
		closeFn: func() error {
			for _, pack := range packs {
				if err := pack.Close(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

var (
	// nameRe is a regular expression that matches the basename of a
	// filepath that is a packfile.
	//
	// It includes one matchgroup, which is the name of the pack.
	nameRe = regexp.MustCompile(`^(.*)\.pack$`)
)

// globEscapes uses these escapes because filepath.Glob does not understand
// backslash escapes on Windows.
var globEscapes = map[string]string{
	"*": "[*]",
	"?": "[?]",
	"[": "[[]",
}

func escapeGlobPattern(s string) string {
	for char, escape := range globEscapes {
		s = strings.ReplaceAll(s, char, escape)
	}
	return s
}

func newPacks(db string) ([]*Packfile, error) {
	pd := filepath.Join(db, "pack")

	paths, err := filepath.Glob(filepath.Join(escapeGlobPattern(pd), "*.pack"))
	if err != nil {
		return nil, err
	}

	packs := make([]*Packfile, 0, len(paths))

	for _, path := range paths {
		subMatch := nameRe.FindStringSubmatch(filepath.Base(path))
		if len(subMatch) != 2 {
			continue
		}

		name := subMatch[1]

		ifd, err := os.Open(filepath.Join(pd, fmt.Sprintf("%s.idx", name)))
		if err != nil {
			// We have a pack (since it matched the regex), but the
			// index is missing or unusable. Skip this pack and
			// continue on with the next one, as Git does.
			if ifd != nil {
				ifd.Close()
			}
			continue
		}

		pfd, err := os.Open(path)
		if err != nil {
			_ = ifd.Close()
			return nil, err
		}

		pack, err := DecodePackfile(pfd)
		if err != nil {
			_ = ifd.Close()
			_ = pfd.Close()
			return nil, err
		}

		idx, err := DecodeIndex(ifd)
		if err != nil {
			_ = pack.Close()
			_ = ifd.Close()
			return nil, err
		}

		pack.idx = idx

		packs = append(packs, pack)
	}
	return packs, nil
}

// NewSet scans the "pack" directory below the given object database root
// and returns a Set over every readable pack/index pair.
func NewSet(db string) (Set, error) {
	packs, err := newPacks(db)
	if err != nil {
		return nil, err
	}
	return packsConcat(packs...), nil
}
