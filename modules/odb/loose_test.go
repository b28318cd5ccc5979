package odb

import (
	"testing"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func looseRoundTrip(t *testing.T, compressionALGO string) {
	t.Helper()
	root := t.TempDir()
	b, err := NewLooseBackend(root, compressionALGO)
	require.NoError(t, err)

	raw := &object.Raw{Type: object.BlobObject, Size: 3, Data: []byte("abc")}
	want, err := raw.Hash()
	require.NoError(t, err)

	oid, err := b.(WritableBackend).Write(raw)
	require.NoError(t, err)
	assert.Equal(t, want, oid)

	assert.True(t, b.(ExistenceChecker).Exists(oid))

	kind, size, err := b.(HeaderReader).ReadHeader(oid)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, kind)
	assert.EqualValues(t, 3, size)

	got, err := b.Read(oid)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, got.Type)
	assert.EqualValues(t, 3, got.Size)
	assert.Equal(t, []byte("abc"), got.Data)
}

func TestLooseRoundTripZlib(t *testing.T) {
	looseRoundTrip(t, "zlib")
}

func TestLooseRoundTripZstd(t *testing.T) {
	looseRoundTrip(t, "zstd")
}

func TestLooseMissingObject(t *testing.T) {
	b, err := NewLooseBackend(t.TempDir(), "zlib")
	require.NoError(t, err)

	_, err = b.Read(anyOID())
	assert.True(t, plumbing.IsNoSuchObject(err))
	assert.False(t, b.(ExistenceChecker).Exists(anyOID()))
}

func TestLooseRewriteIsIdempotent(t *testing.T) {
	b, err := NewLooseBackend(t.TempDir(), "zlib")
	require.NoError(t, err)

	raw := &object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")}
	first, err := b.(WritableBackend).Write(raw)
	require.NoError(t, err)
	second, err := b.(WritableBackend).Write(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLooseFactoryRequiresDirectory(t *testing.T) {
	_, err := NewLooseBackend("/definitely/not/here", "zlib")
	assert.Error(t, err)
}

func TestOpenAttachesLooseBackend(t *testing.T) {
	root := t.TempDir()
	d, err := Open(root)
	require.NoError(t, err)
	defer d.Close() // nolint

	require.NotEmpty(t, d.Backends())

	raw := &object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")}
	oid, err := d.Write(raw)
	require.NoError(t, err)

	got, err := d.Read(oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data)
}

func TestOpenMissingDirectoryHasNoBackends(t *testing.T) {
	d, err := Open("/definitely/not/here")
	require.NoError(t, err)
	defer d.Close() // nolint

	assert.Empty(t, d.Backends())
	assert.False(t, d.Exists(anyOID()))
}
