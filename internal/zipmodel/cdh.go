package zipmodel

import "io"

const cdhSignature = 0x02014b50

// CentralDirectoryHeader is the archive index's per-entry record. Nothing
// forces it to agree with the LocalFileHeader at RelativeOffset: letting
// them diverge is what makes header-location mutators useful.
type CentralDirectoryHeader struct {
	VersionMadeBy    uint16
	VersionNeeded    uint16
	Flags            GeneralPurposeFlag
	Method           CompressionMethod
	ModTime          DosDateTime
	CRC32            uint32
	CompressedSize   SizeField
	UncompressedSize SizeField
	DiskNumberStart  uint16
	InternalAttrs    InternalFileAttributes
	ExternalAttrs    uint32
	RelativeOffset   SizeField

	FileName    []byte
	ExtraFields []ExtraField
	Comment     []byte

	FileNameLength uint16
	ExtraLength    uint16
	CommentLength  uint16
}

// NewCDHFromLFH copies the fields a central directory entry normally
// mirrors from its local file header. Offset is left at its zero value;
// callers set it with SetOffset once the archive layout is known.
func NewCDHFromLFH(h LocalFileHeader, versionMadeBy uint16) CentralDirectoryHeader {
	return CentralDirectoryHeader{
		VersionMadeBy:    versionMadeBy,
		VersionNeeded:    h.VersionNeeded,
		Flags:            h.Flags,
		Method:           h.Method,
		ModTime:          h.ModTime,
		CRC32:            h.CRC32,
		CompressedSize:   h.CompressedSize,
		UncompressedSize: h.UncompressedSize,
		FileName:         h.FileName,
	}
}

// SetOffset stores the byte offset of the entry's local file header,
// widening to ZIP64 only if it overflows 32 bits.
func (h *CentralDirectoryHeader) SetOffset(v uint64) {
	if v > 0xfffffffe {
		h.RelativeOffset = U64Size(v)
	} else {
		h.RelativeOffset = U32Size(uint32(v))
	}
}

// Finalize resyncs FileNameLength, ExtraLength, and CommentLength, and
// finalizes every nested ExtraField.
func (h *CentralDirectoryHeader) Finalize() error {
	if len(h.FileName) > 0xffff {
		return wrapf(KindEncoding, "CentralDirectoryHeader.Finalize", "name too long: %d bytes", len(h.FileName))
	}
	if len(h.Comment) > 0xffff {
		return wrapf(KindEncoding, "CentralDirectoryHeader.Finalize", "comment too long: %d bytes", len(h.Comment))
	}
	h.FileNameLength = uint16(len(h.FileName))
	h.CommentLength = uint16(len(h.Comment))
	for i := range h.ExtraFields {
		if err := h.ExtraFields[i].Finalize(); err != nil {
			return err
		}
	}
	n, err := extraFieldListByteCount(h.ExtraFields)
	if err != nil {
		return wrapf(KindEncoding, "CentralDirectoryHeader.Finalize", "count extra fields: %w", err)
	}
	if n > 0xffff {
		return wrapf(KindEncoding, "CentralDirectoryHeader.Finalize", "extra fields too long: %d bytes", n)
	}
	h.ExtraLength = uint16(n)
	return nil
}

func (h CentralDirectoryHeader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, write := range []func() (int64, error){
		func() (int64, error) { return writeUint32(w, cdhSignature) },
		func() (int64, error) { return writeUint16(w, h.VersionMadeBy) },
		func() (int64, error) { return writeUint16(w, h.VersionNeeded) },
		func() (int64, error) { return h.Flags.WriteTo(w) },
		func() (int64, error) { return h.Method.WriteTo(w) },
		func() (int64, error) { return h.ModTime.WriteTo(w) },
		func() (int64, error) { return writeUint32(w, h.CRC32) },
		func() (int64, error) { return writeUint32(w, h.CompressedSize.Saturate()) },
		func() (int64, error) { return writeUint32(w, h.UncompressedSize.Saturate()) },
		func() (int64, error) { return writeUint16(w, h.FileNameLength) },
		func() (int64, error) { return writeUint16(w, h.ExtraLength) },
		func() (int64, error) { return writeUint16(w, h.CommentLength) },
		func() (int64, error) { return writeUint16(w, h.DiskNumberStart) },
		func() (int64, error) { return h.InternalAttrs.WriteTo(w) },
		func() (int64, error) { return writeUint32(w, h.ExternalAttrs) },
		func() (int64, error) { return writeUint32(w, h.RelativeOffset.Saturate()) },
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
	n, err := w.Write(h.Comment)
	total += int64(n)
	return total, err
}
