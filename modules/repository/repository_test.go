package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scratchRepository lays out a bare repository in a temp directory and
// opens it.
func scratchRepository(t *testing.T) *Repository {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "HEAD"), []byte("ref: refs/heads/master\n"), 0644))

	r, err := Open(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpenRejectsNonRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotARepository)

	_, err = Open("/definitely/not/here")
	assert.ErrorIs(t, err, ErrNotARepository)
}

func TestOpenDiscoversBareLayout(t *testing.T) {
	r := scratchRepository(t)
	assert.True(t, r.IsBare())
	assert.Empty(t, r.IndexFile())
	assert.Empty(t, r.WorkTree())
	assert.Equal(t, filepath.Join(r.GitDir(), "objects"), r.ObjectsDir())
}

func TestOpenDiscoversWorkTree(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/master\n"), 0644))

	r, err := Open(gitDir)
	require.NoError(t, err)
	defer r.Close() // nolint

	assert.False(t, r.IsBare())
	assert.Equal(t, filepath.Join(gitDir, "index"), r.IndexFile())
	// filepath.Abs cleans symlinks away on some systems; compare bases.
	assert.Equal(t, filepath.Base(root), filepath.Base(r.WorkTree()))
}

func TestOpenExOverrides(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, "meta")
	objectsDir := filepath.Join(root, "objects-elsewhere")
	workTree := filepath.Join(root, "tree")
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	require.NoError(t, os.MkdirAll(objectsDir, 0755))
	require.NoError(t, os.MkdirAll(workTree, 0755))

	r, err := OpenEx(&Options{GitDir: gitDir, ObjectsDir: objectsDir, WorkTree: workTree})
	require.NoError(t, err)
	defer r.Close() // nolint

	assert.False(t, r.IsBare())
	assert.Equal(t, objectsDir, r.ObjectsDir())
	assert.Equal(t, workTree, r.WorkTree())

	// Absent work tree implies bare.
	r2, err := OpenEx(&Options{GitDir: gitDir, ObjectsDir: objectsDir})
	require.NoError(t, err)
	defer r2.Close() // nolint
	assert.True(t, r2.IsBare())
}

func TestNewObjectRejectsNonLooseKinds(t *testing.T) {
	r := scratchRepository(t)
	for _, kind := range []object.Type{object.OFSDeltaObject, object.REFDeltaObject, object.BadObject, object.Type(0)} {
		_, err := r.NewObject(kind)
		assert.ErrorIs(t, err, object.ErrInvalidType, "kind %d", kind)
	}
}

func TestNewObjectHasNoIdentifier(t *testing.T) {
	r := scratchRepository(t)
	b, err := r.NewBlob()
	require.NoError(t, err)

	_, ok := b.ID()
	assert.False(t, ok)
	assert.True(t, b.Modified())
	assert.Equal(t, object.BlobObject, b.Kind())
	assert.Equal(t, r, b.Owner())
}

func TestWriteBlobMatchesCanonicalHash(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))

	oid, ok := b.ID()
	require.True(t, ok)
	assert.False(t, b.Modified())

	want, err := (&object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")}).Hash()
	require.NoError(t, err)
	assert.Equal(t, want, oid)
}

func TestLookupReturnsCachedInstance(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))
	oid, _ := b.ID()

	got, err := r.Lookup(oid, object.AnyObject)
	require.NoError(t, err)
	assert.Same(t, Object(b), got)

	again, err := r.Lookup(oid, object.BlobObject)
	require.NoError(t, err)
	assert.Same(t, got, again)

	_, err = r.Lookup(oid, object.CommitObject)
	assert.ErrorIs(t, err, object.ErrInvalidType)
}

func TestLookupReadThrough(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))
	oid, _ := b.ID()

	// A second handle over the same store must parse the same bytes.
	r2, err := Open(r.GitDir())
	require.NoError(t, err)
	defer r2.Close() // nolint

	got, err := r2.LookupBlob(oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Content)
	id2, ok := got.ID()
	require.True(t, ok)
	assert.Equal(t, oid, id2)

	// Identity on the second handle as well.
	again, err := r2.Lookup(oid, object.AnyObject)
	require.NoError(t, err)
	assert.Same(t, Object(got), again)
}

func TestLookupMissingObject(t *testing.T) {
	r := scratchRepository(t)
	_, err := r.Lookup(plumbing.NewHash(
		"7777777777777777777777777777777777777777777777777777777777777777"), object.AnyObject)
	assert.True(t, plumbing.IsNoSuchObject(err))
}

func TestRewriteChangesIdentifierAndRekeysCache(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("first"))
	require.NoError(t, r.WriteObject(b))
	id1, _ := b.ID()

	b.SetContent([]byte("second"))
	assert.True(t, b.Modified())
	require.NoError(t, r.WriteObject(b))
	id2, _ := b.ID()

	assert.NotEqual(t, id1, id2)

	// The cache holds the object under the new identifier only. The old
	// identifier still resolves through the store (objects are
	// immutable), but yields a fresh instance.
	got, err := r.Lookup(id2, object.AnyObject)
	require.NoError(t, err)
	assert.Same(t, Object(b), got)

	old, err := r.Lookup(id1, object.AnyObject)
	require.NoError(t, err)
	assert.NotSame(t, Object(b), old)
}

func TestWriteCleanObjectIsNoop(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))
	id1, _ := b.ID()

	require.NoError(t, r.WriteObject(b))
	id2, _ := b.ID()
	assert.Equal(t, id1, id2)
}

func TestWriteCollisionReplacesLatest(t *testing.T) {
	r := scratchRepository(t)

	a, err := r.NewBlob()
	require.NoError(t, err)
	a.SetContent([]byte("same"))
	require.NoError(t, r.WriteObject(a))
	oid, _ := a.ID()

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("same"))
	require.NoError(t, r.WriteObject(b))
	oid2, _ := b.ID()
	require.Equal(t, oid, oid2)

	// The most recently written object is the canonical cached instance.
	got, err := r.Lookup(oid, object.AnyObject)
	require.NoError(t, err)
	assert.Same(t, Object(b), got)
}

func TestFreeObjectEvictsCacheEntry(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))
	oid, _ := b.ID()

	r.FreeObject(b)

	got, err := r.Lookup(oid, object.AnyObject)
	require.NoError(t, err)
	assert.NotSame(t, Object(b), got)
}

func TestOpenSourceRereadsRawBytes(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("hello"))
	require.NoError(t, r.WriteObject(b))

	require.NoError(t, r.OpenSource(b))
	assert.Equal(t, []byte("hello"), r.SourceBytes(b))
	r.CloseSource(b)

	fresh, err := r.NewBlob()
	require.NoError(t, err)
	assert.Error(t, r.OpenSource(fresh))
}

func TestReadHeaderAgreesWithRead(t *testing.T) {
	r := scratchRepository(t)

	b, err := r.NewBlob()
	require.NoError(t, err)
	b.SetContent([]byte("abc"))
	require.NoError(t, r.WriteObject(b))
	oid, _ := b.ID()

	kind, size, err := r.Database().ReadHeader(oid)
	require.NoError(t, err)

	raw, err := r.Database().Read(oid)
	require.NoError(t, err)
	assert.Equal(t, raw.Type, kind)
	assert.Equal(t, raw.Size, size)
	assert.Equal(t, []byte("abc"), raw.Data)
}

func TestCommitEndToEnd(t *testing.T) {
	r := scratchRepository(t)

	blob, err := r.NewBlob()
	require.NoError(t, err)
	blob.SetContent([]byte("package main\n"))
	require.NoError(t, r.WriteObject(blob))
	blobID, _ := blob.ID()

	tree, err := r.NewTree()
	require.NoError(t, err)
	tree.AddEntry("main.go", blobID, ModeBlob)
	require.NoError(t, r.WriteObject(tree))
	treeID, _ := tree.ID()

	commit, err := r.NewCommit()
	require.NoError(t, err)
	commit.SetTree(treeID)
	commit.SetAuthor(object.Signature{Name: "John Doe", Email: "john@example.com"})
	commit.SetCommitter(object.Signature{Name: "Jane Doe", Email: "jane@example.com"})
	commit.SetMessage("initial commit\n")
	require.NoError(t, r.WriteObject(commit))
	commitID, _ := commit.ID()

	r2, err := Open(r.GitDir())
	require.NoError(t, err)
	defer r2.Close() // nolint

	got, err := r2.LookupCommit(commitID)
	require.NoError(t, err)
	assert.Equal(t, treeID, got.Tree)
	assert.Equal(t, "initial commit\n", got.Message)
	assert.Equal(t, "John Doe", got.Author.Name)

	gotTree, err := r2.LookupTree(treeID)
	require.NoError(t, err)
	require.Len(t, gotTree.Entries, 1)
	assert.Equal(t, "main.go", gotTree.Entries[0].Name)
	assert.Equal(t, blobID, gotTree.Entries[0].ID)
	assert.Equal(t, ModeBlob, gotTree.Entries[0].Mode)
}

func TestTagEndToEnd(t *testing.T) {
	r := scratchRepository(t)

	blob, err := r.NewBlob()
	require.NoError(t, err)
	blob.SetContent([]byte("v1 contents"))
	require.NoError(t, r.WriteObject(blob))
	blobID, _ := blob.ID()

	tag, err := r.NewTag()
	require.NoError(t, err)
	tag.SetTarget(blobID, object.BlobObject)
	tag.SetName("v1.0.0")
	tag.SetTagger(object.Signature{Name: "John Doe", Email: "john@example.com"})
	tag.SetMessage("release v1\n")
	require.NoError(t, r.WriteObject(tag))
	tagID, _ := tag.ID()

	r2, err := Open(r.GitDir())
	require.NoError(t, err)
	defer r2.Close() // nolint

	got, err := r2.LookupTag(tagID)
	require.NoError(t, err)
	assert.Equal(t, blobID, got.Object)
	assert.Equal(t, object.BlobObject, got.ObjectType)
	assert.Equal(t, "v1.0.0", got.Name)
	assert.Equal(t, "release v1\n", got.Message)
}
