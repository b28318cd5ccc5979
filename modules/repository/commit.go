// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/fullstackenviormentss/gitdb/modules/streamio"
)

// ExtraHeader encapsulates a key-value pairing of header key to header
// value. It is stored as a struct{string, string} in memory as opposed to a
// map[string]string to maintain ordering in a byte-for-byte encode/decode
// round trip.
type ExtraHeader struct {
	// K is the header key, or the first run of bytes up until a ' '
	// (\x20) character.
	K string
	// V is the header value, or the remaining run of bytes in the line,
	// stripping off the above "K" field as a prefix.
	V string
}

type Commit struct {
	objectHeader

	Tree         plumbing.Hash
	Parents      []plumbing.Hash
	Author       object.Signature
	Committer    object.Signature
	ExtraHeaders []*ExtraHeader
	Message      string
}

func (c *Commit) SetTree(oid plumbing.Hash) {
	c.Tree = oid
	c.markModified()
}

func (c *Commit) AddParent(oid plumbing.Hash) {
	c.Parents = append(c.Parents, oid)
	c.markModified()
}

func (c *Commit) SetAuthor(sig object.Signature) {
	c.Author = sig
	c.markModified()
}

func (c *Commit) SetCommitter(sig object.Signature) {
	c.Committer = sig
	c.markModified()
}

func (c *Commit) SetMessage(message string) {
	c.Message = message
	c.markModified()
}

// parse decodes the commit grammar held in the source buffer: a run of
// headers (continuation lines begin with a space), one blank line, then the
// message verbatim.
func (c *Commit) parse() error {
	br := streamio.GetBufioReader(bytes.NewReader(c.source.Bytes()))
	defer streamio.PutBufioReader(br)

	var message strings.Builder
	var finishedHeaders bool

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}
		if len(line) == 0 && readErr == io.EOF {
			break
		}

		if finishedHeaders {
			message.WriteString(line)
		} else {
			text := strings.TrimSuffix(line, "\n")
			if len(text) == 0 {
				finishedHeaders = true
			} else if strings.HasPrefix(text, " ") {
				// Continuation of the previous header, e.g. the
				// remaining lines of a gpgsig.
				if len(c.ExtraHeaders) == 0 {
					return fmt.Errorf("gitdb: continuation outside of header: %q", text)
				}
				last := c.ExtraHeaders[len(c.ExtraHeaders)-1]
				last.V = strings.Join([]string{last.V, text[1:]}, "\n")
			} else {
				field, value, _ := strings.Cut(text, " ")
				switch field {
				case "tree":
					oid, err := plumbing.NewHashEx(value)
					if err != nil {
						return err
					}
					c.Tree = oid
				case "parent":
					oid, err := plumbing.NewHashEx(value)
					if err != nil {
						return err
					}
					c.Parents = append(c.Parents, oid)
				case "author":
					c.Author.Decode([]byte(value))
				case "committer":
					c.Committer.Decode([]byte(value))
				default:
					c.ExtraHeaders = append(c.ExtraHeaders, &ExtraHeader{K: field, V: value})
				}
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	c.Message = message.String()
	return nil
}

// writeback encodes the commit into the given source in the same grammar
// parse accepts.
func (c *Commit) writeback(s *Source) error {
	if err := s.Printf("tree %s\n", c.Tree); err != nil {
		return err
	}
	for _, parent := range c.Parents {
		if err := s.Printf("parent %s\n", parent); err != nil {
			return err
		}
	}
	if err := s.Printf("author %s\ncommitter %s\n", c.Author.String(), c.Committer.String()); err != nil {
		return err
	}
	for _, hdr := range c.ExtraHeaders {
		// Multi-line header values continue with a leading space.
		if err := s.Printf("%s %s\n", hdr.K, strings.ReplaceAll(hdr.V, "\n", "\n ")); err != nil {
			return err
		}
	}
	if _, err := s.Write([]byte{'\n'}); err != nil {
		return err
	}
	_, err := s.Write([]byte(c.Message))
	return err
}

func (c *Commit) clear() {
	c.Parents = nil
	c.ExtraHeaders = nil
	c.Message = ""
}
