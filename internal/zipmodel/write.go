package zipmodel

import "io"

// WriterTo is satisfied by every serializable model type. It is the same
// shape as io.WriterTo; named separately so the package reads as its own
// vocabulary rather than leaning on the stdlib interface by accident.
type WriterTo interface {
	WriteTo(w io.Writer) (int64, error)
}

// countWriter discards bytes and only counts them, so ByteCount can reuse
// the exact same WriteTo code path that produces the real serialization —
// there is no separate size-computation logic to drift out of sync.
type countWriter struct{ n int64 }

func (c *countWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// ByteCount returns the exact number of bytes x.WriteTo would write, without
// allocating the serialized form.
func ByteCount(x WriterTo) (int64, error) {
	var c countWriter
	_, err := x.WriteTo(&c)
	if err != nil {
		return 0, err
	}
	return c.n, nil
}
