// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/fullstackenviormentss/gitdb/modules/repository"
	"github.com/fullstackenviormentss/gitdb/modules/trace"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: gitdb <command> [args]

commands:
  init [--bare] [dir]          create an empty repository
  hash-object [-w] [-t kind] <file>
                               compute an object identifier
  cat-file (-t|-s|-p) <oid>    inspect a repository object
  exists <oid>                 report whether an object is present
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	var err error
	switch os.Args[1] {
	case "init":
		err = initRepository(os.Args[2:])
	case "hash-object":
		err = hashObject(os.Args[2:])
	case "cat-file":
		err = catFile(os.Args[2:])
	case "exists":
		err = existsObject(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gitdb: %v\n", err)
		os.Exit(1)
	}
}

func discover() (*repository.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		if r, err := repository.Open(filepath.Join(dir, ".git")); err == nil {
			return r, nil
		}
		if r, err := repository.Open(dir); err == nil {
			return r, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return nil, trace.Errorf("no repository found above %s", cwd)
}

func initRepository(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	bare := fs.Bool("bare", false, "create a bare repository")
	_ = fs.Parse(args)
	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	gitDir := dir
	if !*bare {
		gitDir = filepath.Join(dir, ".git")
	}
	if err := os.MkdirAll(filepath.Join(gitDir, "objects"), 0755); err != nil {
		return err
	}
	headPath := filepath.Join(gitDir, "HEAD")
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0644); err != nil {
			return err
		}
	}
	trace.DbgPrint("initialized repository at %s", gitDir)
	fmt.Fprintf(os.Stdout, "Initialized empty repository in %s\n", gitDir)
	return nil
}

func hashObject(args []string) error {
	fs := flag.NewFlagSet("hash-object", flag.ExitOnError)
	write := fs.Bool("w", false, "write the object into the database")
	kindName := fs.String("t", "blob", "object kind")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}
	kind := object.TypeFromName(*kindName)
	if !kind.IsLoose() {
		return trace.Errorf("'%s' is not a storable object kind", *kindName)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	raw := &object.Raw{Type: kind, Size: int64(len(data)), Data: data}
	if !*write {
		oid, err := raw.Hash()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, oid)
		return nil
	}
	r, err := discover()
	if err != nil {
		return err
	}
	defer r.Close() // nolint
	oid, err := r.Database().Write(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, oid)
	return nil
}

func catFile(args []string) error {
	fs := flag.NewFlagSet("cat-file", flag.ExitOnError)
	showType := fs.Bool("t", false, "show the object kind")
	showSize := fs.Bool("s", false, "show the object size")
	pretty := fs.Bool("p", false, "print the object contents")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}
	oid, err := plumbing.NewHashEx(fs.Arg(0))
	if err != nil {
		return err
	}
	r, err := discover()
	if err != nil {
		return err
	}
	defer r.Close() // nolint

	if *showType || *showSize {
		kind, size, err := r.Database().ReadHeader(oid)
		if err != nil {
			return err
		}
		if *showType {
			fmt.Fprintln(os.Stdout, kind.Name())
		}
		if *showSize {
			fmt.Fprintln(os.Stdout, size)
		}
		return nil
	}
	if !*pretty {
		usage()
	}
	o, err := r.Lookup(oid, object.AnyObject)
	if err != nil {
		return err
	}
	if err := r.OpenSource(o); err != nil {
		return err
	}
	defer r.CloseSource(o)
	_, err = os.Stdout.Write(r.SourceBytes(o))
	return err
}

func existsObject(args []string) error {
	if len(args) != 1 {
		usage()
	}
	oid, err := plumbing.NewHashEx(args[0])
	if err != nil {
		return err
	}
	r, err := discover()
	if err != nil {
		return err
	}
	defer r.Close() // nolint
	if !r.Database().Exists(oid) {
		return trace.Errorf("object %s not found", oid.Prefix())
	}
	fmt.Fprintln(os.Stdout, oid)
	return nil
}
