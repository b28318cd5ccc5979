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

type Tag struct {
	objectHeader

	Object     plumbing.Hash
	ObjectType object.Type
	Name       string
	Tagger     object.Signature
	Message    string
}

// SetTarget points the tag at the given object.
func (t *Tag) SetTarget(oid plumbing.Hash, kind object.Type) {
	t.Object = oid
	t.ObjectType = kind
	t.markModified()
}

func (t *Tag) SetName(name string) {
	t.Name = name
	t.markModified()
}

func (t *Tag) SetTagger(sig object.Signature) {
	t.Tagger = sig
	t.markModified()
}

func (t *Tag) SetMessage(message string) {
	t.Message = message
	t.markModified()
}

// Extract splits the message from a trailing signature block, if any.
func (t *Tag) Extract() (message string, signature string) {
	if i := strings.Index(t.Message, "-----BEGIN"); i > 0 {
		return t.Message[:i], t.Message[i:]
	}
	return t.Message, ""
}

func (t *Tag) parse() error {
	br := streamio.GetBufioReader(bytes.NewReader(t.source.Bytes()))
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
			} else {
				field, value, ok := strings.Cut(text, " ")
				if !ok {
					return fmt.Errorf("gitdb: invalid tag header: %s", text)
				}

				switch field {
				case "object":
					oid, err := plumbing.NewHashEx(value)
					if err != nil {
						return err
					}
					t.Object = oid
				case "type":
					t.ObjectType = object.TypeFromName(value)
				case "tag":
					t.Name = value
				case "tagger":
					t.Tagger.Decode([]byte(value))
				default:
					return fmt.Errorf("gitdb: unknown tag header: %s", field)
				}
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	t.Message = message.String()
	return nil
}

func (t *Tag) writeback(s *Source) error {
	if err := s.Printf("object %s\ntype %s\ntag %s\ntagger %s\n\n",
		t.Object, t.ObjectType.Name(), t.Name, t.Tagger.String()); err != nil {
		return err
	}
	_, err := s.Write([]byte(t.Message))
	return err
}

func (t *Tag) clear() {
	t.Name = ""
	t.Message = ""
}
