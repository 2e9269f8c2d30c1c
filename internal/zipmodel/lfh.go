package zipmodel

import "io"

const lfhSignature = 0x04034b50

// LocalFileHeader is the per-entry header that precedes file data in the
// archive body. Its CRC-32 and size fields are free to disagree with the
// central directory's copy of the same entry, and Finalize never corrects
// that on its own — only SetCompressedSize/SetUncompressedSize/SetFileName
// touch the width-dependent fields a mutator hasn't already overridden.
type LocalFileHeader struct {
	VersionNeeded    uint16
	Flags            GeneralPurposeFlag
	Method           CompressionMethod
	ModTime          DosDateTime
	CRC32            uint32
	CompressedSize   SizeField
	UncompressedSize SizeField
	FileName         []byte
	ExtraFields      []ExtraField

	// FileNameLength and ExtraLength are recomputed by Finalize from
	// FileName/ExtraFields; a mutator wanting a deliberately wrong length
	// should set them again afterward.
	FileNameLength uint16
	ExtraLength    uint16
}

// SetCompressedSize stores v, widening to ZIP64 only if it overflows 32 bits.
func (h *LocalFileHeader) SetCompressedSize(v uint64) {
	if v > 0xfffffffe {
		h.CompressedSize = U64Size(v)
	} else {
		h.CompressedSize = U32Size(uint32(v))
	}
}

// SetUncompressedSize stores v, widening to ZIP64 only if it overflows 32 bits.
func (h *LocalFileHeader) SetUncompressedSize(v uint64) {
	if v > 0xfffffffe {
		h.UncompressedSize = U64Size(v)
	} else {
		h.UncompressedSize = U32Size(uint32(v))
	}
}

// SetFileName replaces FileName and resyncs FileNameLength.
func (h *LocalFileHeader) SetFileName(name []byte) error {
	if len(name) > 0xffff {
		return wrapf(KindEncoding, "LocalFileHeader.SetFileName", "name too long: %d bytes", len(name))
	}
	h.FileName = name
	h.FileNameLength = uint16(len(name))
	return nil
}

// Finalize resyncs FileNameLength and ExtraLength, and finalizes every
// nested ExtraField, without touching sizes or the CRC.
func (h *LocalFileHeader) Finalize() error {
	if len(h.FileName) > 0xffff {
		return wrapf(KindEncoding, "LocalFileHeader.Finalize", "name too long: %d bytes", len(h.FileName))
	}
	h.FileNameLength = uint16(len(h.FileName))
	for i := range h.ExtraFields {
		if err := h.ExtraFields[i].Finalize(); err != nil {
			return err
		}
	}
	n, err := extraFieldListByteCount(h.ExtraFields)
	if err != nil {
		return wrapf(KindEncoding, "LocalFileHeader.Finalize", "count extra fields: %w", err)
	}
	if n > 0xffff {
		return wrapf(KindEncoding, "LocalFileHeader.Finalize", "extra fields too long: %d bytes", n)
	}
	h.ExtraLength = uint16(n)
	return nil
}

func (h LocalFileHeader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, write := range []func() (int64, error){
		func() (int64, error) { return writeUint32(w, lfhSignature) },
		func() (int64, error) { return writeUint16(w, h.VersionNeeded) },
		func() (int64, error) { return h.Flags.WriteTo(w) },
		func() (int64, error) { return h.Method.WriteTo(w) },
		func() (int64, error) { return h.ModTime.WriteTo(w) },
		func() (int64, error) { return writeUint32(w, h.CRC32) },
		func() (int64, error) { return writeUint32(w, h.CompressedSize.Saturate()) },
		func() (int64, error) { return writeUint32(w, h.UncompressedSize.Saturate()) },
		func() (int64, error) { return writeUint16(w, h.FileNameLength) },
		func() (int64, error) { return writeUint16(w, h.ExtraLength) },
		func() (int64, error) { n, err := w.Write(h.FileName); return int64(n), err },
	} {
		n, err := write()
		total += n
		if err != nil {
			return total, err
		}
	}
	for i := range h.ExtraFields {
		n, err := h.ExtraFields[i].WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
