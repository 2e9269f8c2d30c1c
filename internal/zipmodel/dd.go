package zipmodel

import "io"

// SizeField is a size or offset that may be stored as a plain 32-bit value
// or, once it no longer fits, promoted to 64-bit. A 64-bit value is written
// to a 32-bit header slot as the 0xFFFFFFFF sentinel; nothing in this
// package adds the matching ZIP64 extra field to the header. The zero value
// is U32Size(0).
type SizeField struct {
	wide  bool
	small uint32
	big   uint64
}

// U32Size constructs a 32-bit-width size field.
func U32Size(v uint32) SizeField { return SizeField{small: v} }

// U64Size constructs a 64-bit-width size field.
func U64Size(v uint64) SizeField { return SizeField{wide: true, big: v} }

// IsWide reports whether the field is carrying a 64-bit value.
func (s SizeField) IsWide() bool { return s.wide }

// Value returns the field's value widened to 64 bits regardless of which
// width it is currently stored at.
func (s SizeField) Value() uint64 {
	if s.wide {
		return s.big
	}
	return uint64(s.small)
}

// Saturate returns the 32-bit on-wire representation of the field: the
// value itself if it's narrow and fits, or 0xFFFFFFFF ("look in the ZIP64
// extra field") if it's wide or a narrow value has overflowed 32 bits.
func (s SizeField) Saturate() uint32 {
	if s.wide || s.small == 0xffffffff {
		return 0xffffffff
	}
	return s.small
}

// Widen promotes the field to 64-bit storage, preserving its value, so it
// is written as the 0xFFFFFFFF sentinel in a header slot and as 64 bits in a
// data descriptor regardless of whether the value needs the extra width.
func (s *SizeField) Widen() {
	if s.wide {
		return
	}
	s.wide = true
	s.big = uint64(s.small)
}

// DataDescriptor is the optional post-data record signalled by
// FlagDataDescriptor. Its own internal signature is optional and, per
// APPNOTE, notoriously ambiguous to detect.
type DataDescriptor struct {
	HasSignature bool
	CRC32        uint32
	CompressedSize   SizeField
	UncompressedSize SizeField
}

func (d DataDescriptor) WriteTo(w io.Writer) (int64, error) {
	var total int64
	if d.HasSignature {
		n, err := writeUint32(w, 0x08074b50)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := writeUint32(w, d.CRC32)
	total += n
	if err != nil {
		return total, err
	}
	if d.CompressedSize.IsWide() || d.UncompressedSize.IsWide() {
		n, err = writeUint64(w, d.CompressedSize.Value())
		total += n
		if err != nil {
			return total, err
		}
		n, err = writeUint64(w, d.UncompressedSize.Value())
		total += n
		return total, err
	}
	n, err = writeUint32(w, d.CompressedSize.Saturate())
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint32(w, d.UncompressedSize.Saturate())
	total += n
	return total, err
}
