package odb

import (
	"errors"
	"strings"
	"testing"

	"github.com/fullstackenviormentss/gitdb/modules/object"
	"github.com/fullstackenviormentss/gitdb/modules/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable backend without header support, so it also
// exercises the full-read fallback of ReadHeader.
type fakeBackend struct {
	BackendBase

	name    string
	objects map[plumbing.Hash]*object.Raw
	readErr error
	trace   *[]string
}

func newFakeBackend(name string, priority int, trace *[]string) *fakeBackend {
	return &fakeBackend{
		BackendBase: NewBackendBase(priority),
		name:        name,
		objects:     make(map[plumbing.Hash]*object.Raw),
		trace:       trace,
	}
}

func (f *fakeBackend) step(op string) {
	if f.trace != nil {
		*f.trace = append(*f.trace, f.name+":"+op)
	}
}

func (f *fakeBackend) Read(oid plumbing.Hash) (*object.Raw, error) {
	f.step("read")
	if f.readErr != nil {
		return nil, f.readErr
	}
	raw, ok := f.objects[oid]
	if !ok {
		return nil, plumbing.NoSuchObject(oid)
	}
	return raw, nil
}

func (f *fakeBackend) Exists(oid plumbing.Hash) bool {
	f.step("exists")
	_, ok := f.objects[oid]
	return ok
}

func (f *fakeBackend) put(raw *object.Raw) plumbing.Hash {
	oid, _ := raw.Hash()
	f.objects[oid] = raw
	return oid
}

// closeBackend lacks everything but Read and Close.
type closeBackend struct {
	BackendBase
	closed int
}

func (c *closeBackend) Read(oid plumbing.Hash) (*object.Raw, error) {
	return nil, plumbing.NoSuchObject(oid)
}

func (c *closeBackend) Close() error {
	c.closed++
	return nil
}

func anyOID() plumbing.Hash {
	return plumbing.NewHash(strings.Repeat("ab", plumbing.HASH_DIGEST_SIZE))
}

func TestEmptyDatabase(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	assert.False(t, d.Exists(anyOID()))

	_, err = d.Read(anyOID())
	assert.True(t, plumbing.IsNoSuchObject(err))

	_, _, err = d.ReadHeader(anyOID())
	assert.True(t, plumbing.IsNoSuchObject(err))

	_, err = d.Write(&object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")})
	assert.Error(t, err)

	assert.NoError(t, d.Close())
}

func TestAddBackendBusy(t *testing.T) {
	d1, err := New()
	require.NoError(t, err)
	d2, err := New()
	require.NoError(t, err)

	b := newFakeBackend("a", 1, nil)
	require.NoError(t, d1.AddBackend(b))

	assert.Equal(t, ErrBusy, d2.AddBackend(b))

	// Re-adding to the same database succeeds without duplicating.
	assert.NoError(t, d1.AddBackend(b))
	assert.Len(t, d1.Backends(), 1)
}

func TestDispatchOrderIsDescendingPriority(t *testing.T) {
	var trace []string
	d, err := New()
	require.NoError(t, err)

	a := newFakeBackend("a", 10, &trace)
	b := newFakeBackend("b", 1, &trace)
	oid := a.put(&object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")})

	require.NoError(t, d.AddBackend(b))
	require.NoError(t, d.AddBackend(a))

	assert.True(t, d.Exists(oid))
	assert.Equal(t, []string{"a:exists"}, trace)

	// Swapped priorities in a fresh database are honored on the next
	// operation.
	trace = nil
	d2, err := New()
	require.NoError(t, err)
	a2 := newFakeBackend("a", 1, &trace)
	b2 := newFakeBackend("b", 10, &trace)
	require.NoError(t, d2.AddBackend(a2))
	require.NoError(t, d2.AddBackend(b2))

	assert.False(t, d2.Exists(oid))
	assert.Equal(t, []string{"b:exists", "a:exists"}, trace)
}

func TestInsertingHigherPriorityBackendWinsNextDispatch(t *testing.T) {
	var trace []string
	d, err := New()
	require.NoError(t, err)
	low := newFakeBackend("low", 1, &trace)
	require.NoError(t, d.AddBackend(low))

	_ = d.Exists(anyOID())
	assert.Equal(t, []string{"low:exists"}, trace)

	high := newFakeBackend("high", 99, &trace)
	require.NoError(t, d.AddBackend(high))

	trace = nil
	_ = d.Exists(anyOID())
	assert.Equal(t, []string{"high:exists", "low:exists"}, trace)
}

func TestReadFirstSuccessWins(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	a := newFakeBackend("a", 10, nil)
	b := newFakeBackend("b", 1, nil)

	// Only the low-priority backend holds the object; the dispatcher
	// falls through the not-found result.
	oid := b.put(&object.Raw{Type: object.BlobObject, Size: 3, Data: []byte("abc")})
	require.NoError(t, d.AddBackend(a))
	require.NoError(t, d.AddBackend(b))

	raw, err := d.Read(oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), raw.Data)
}

func TestReadPreservesBackendError(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	corrupt := errors.New("corrupt backend")
	a := newFakeBackend("a", 10, nil)
	a.readErr = corrupt
	b := newFakeBackend("b", 1, nil)

	require.NoError(t, d.AddBackend(a))
	require.NoError(t, d.AddBackend(b))

	_, err = d.Read(anyOID())
	assert.Equal(t, corrupt, err)
}

func TestReadHeaderFallsBackToFullRead(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	a := newFakeBackend("a", 1, nil)
	oid := a.put(&object.Raw{Type: object.BlobObject, Size: 3, Data: []byte("abc")})
	require.NoError(t, d.AddBackend(a))

	kind, size, err := d.ReadHeader(oid)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, kind)
	assert.EqualValues(t, 3, size)
}

func TestWriteComputesIdentifier(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	require.NoError(t, d.AddBackend(NewMemoryBackend(1, nil)))

	raw := &object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")}
	want, err := raw.Hash()
	require.NoError(t, err)

	oid, err := d.Write(raw)
	require.NoError(t, err)
	assert.Equal(t, want, oid)

	kind, size, err := d.ReadHeader(oid)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, kind)
	assert.EqualValues(t, 5, size)

	got, err := d.Read(oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data)
}

func TestCloseReleasesBackends(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	c := &closeBackend{BackendBase: NewBackendBase(1)}
	require.NoError(t, d.AddBackend(c))

	require.NoError(t, d.Close())
	assert.Equal(t, 1, c.closed)

	assert.Error(t, d.Close())
	assert.Equal(t, 1, c.closed)
}

func TestReadWithLRU(t *testing.T) {
	d, err := New(WithEnableLRU(true))
	require.NoError(t, err)
	defer d.Close() // nolint

	m := NewMemoryBackend(1, nil)
	require.NoError(t, d.AddBackend(m))

	raw := &object.Raw{Type: object.BlobObject, Size: 5, Data: []byte("hello")}
	oid, err := d.Write(raw)
	require.NoError(t, err)

	for range 3 {
		got, err := d.Read(oid)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), got.Data)
	}
}
