// Package zipmodel is a typed, bit-exact in-memory representation of the ZIP
// file format that deliberately permits internally inconsistent archives:
// the local file header, central directory header, and end-of-central-directory
// record are free to disagree with each other. That freedom is the whole
// point — it is the substrate the fuzzer mutates.
package zipmodel

import "fmt"

// Kind classifies what went wrong building or serializing an archive.
type Kind int

const (
	// KindEncoding means a field's value can't fit the on-wire width of its
	// length/size slot (e.g. a file name longer than 65535 bytes).
	KindEncoding Kind = iota
	// KindCompression means the configured codec rejected the payload.
	KindCompression
	// KindIO means a filesystem or subprocess operation failed.
	KindIO
	// KindConfig means a driver configuration value was missing or invalid.
	KindConfig
	// KindInvariant means two mutually exclusive builder states were both set.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindEncoding:
		return "encoding"
	case KindCompression:
		return "compression"
	case KindIO:
		return "io"
	case KindConfig:
		return "config"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("zipmodel: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
