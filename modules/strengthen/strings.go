package strengthen

import "bytes"

// BufferCat concatenates the given strings into a single byte slice,
// growing the destination exactly once.
func BufferCat(sv ...string) []byte {
	var size int
	for _, s := range sv {
		size += len(s)
	}
	var buf bytes.Buffer
	buf.Grow(size)
	for _, s := range sv {
		_, _ = buf.WriteString(s)
	}
	return buf.Bytes()
}
