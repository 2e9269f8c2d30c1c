package zipmodel

import (
	"io"
)

// ExtraFieldPayload is implemented by every known extra-field payload
// variant plus OpaquePayload for header-ids the model doesn't otherwise
// understand. It plays the role the Rust original gives to a boxed trait
// object with runtime downcasting: here the downcast is a type switch.
type ExtraFieldPayload interface {
	WriterTo
	HeaderID() uint16
}

// ExtraField is (header-id, size, payload). Size and HeaderID are
// recomputed from Data by Finalize; until then they may be stale, which is
// exactly what mutators exploit.
type ExtraField struct {
	HeaderID uint16
	Size     uint16
	Data     ExtraFieldPayload
}

// Finalize resyncs HeaderID and Size to match Data.
func (f *ExtraField) Finalize() error {
	f.HeaderID = f.Data.HeaderID()
	n, err := ByteCount(f.Data)
	if err != nil {
		return wrapf(KindEncoding, "ExtraField.Finalize", "count extra field payload: %w", err)
	}
	if n > 0xffff {
		return wrapf(KindEncoding, "ExtraField.Finalize", "extra field too long: %d bytes", n)
	}
	f.Size = uint16(n)
	return nil
}

func (f ExtraField) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeUint16(w, f.HeaderID)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint16(w, f.Size)
	total += n
	if err != nil {
		return total, err
	}
	n, err = f.Data.WriteTo(w)
	total += n
	return total, err
}

func extraFieldListByteCount(fields []ExtraField) (int64, error) {
	var total int64
	for i := range fields {
		n, err := ByteCount(fields[i])
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Zip64ExtendedInfo is the header-id-1 extra field. Each sub-size is
// optional independently: the LFH/CDH may widen only the field that
// actually overflowed, leaving the others absent.
type Zip64ExtendedInfo struct {
	OriginalSize          *uint64
	CompressedSize        *uint64
	RelativeHeaderOffset  *uint64
	DiskStartNumber       *uint32
}

func (Zip64ExtendedInfo) HeaderID() uint16 { return 1 }

func (z Zip64ExtendedInfo) IsEmpty() bool {
	return z.OriginalSize == nil && z.CompressedSize == nil &&
		z.RelativeHeaderOffset == nil && z.DiskStartNumber == nil
}

func (z Zip64ExtendedInfo) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, v := range []*uint64{z.OriginalSize, z.CompressedSize, z.RelativeHeaderOffset} {
		if v == nil {
			continue
		}
		n, err := writeUint64(w, *v)
		total += n
		if err != nil {
			return total, err
		}
	}
	if z.DiskStartNumber != nil {
		n, err := writeUint32(w, *z.DiskStartNumber)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// PatchDescriptorFlag is the bit field of the (rarely seen) Patch Descriptor
// extra field, header-id 0x000f.
type PatchDescriptorFlag uint32

const (
	PatchAutoDetection          PatchDescriptorFlag = 1 << 0
	PatchSelfPatch              PatchDescriptorFlag = 1 << 1
	PatchActionAdd              PatchDescriptorFlag = 1 << 4
	PatchActionDelete           PatchDescriptorFlag = 2 << 4
	PatchActionPatch            PatchDescriptorFlag = 3 << 4
	PatchReactionAbsentSkip     PatchDescriptorFlag = 1 << 8
	PatchReactionAbsentIgnore   PatchDescriptorFlag = 2 << 8
	PatchReactionAbsentFail     PatchDescriptorFlag = 3 << 8
	PatchReactionNewerSkip      PatchDescriptorFlag = 1 << 10
	PatchReactionNewerIgnore    PatchDescriptorFlag = 2 << 10
	PatchReactionNewerFail      PatchDescriptorFlag = 3 << 10
	PatchReactionUnknownSkip    PatchDescriptorFlag = 1 << 12
	PatchReactionUnknownIgnore  PatchDescriptorFlag = 2 << 12
	PatchReactionUnknownFail    PatchDescriptorFlag = 3 << 12
)

// PatchDescriptor is header-id 0x000f.
type PatchDescriptor struct {
	Version  uint16
	Flags    PatchDescriptorFlag
	OldSize  uint32
	OldCRC   uint32
	NewSize  uint32
	NewCRC   uint32
}

func (PatchDescriptor) HeaderID() uint16 { return 0xf }

func (p PatchDescriptor) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeUint16(w, p.Version)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint32(w, uint32(p.Flags))
	total += n
	if err != nil {
		return total, err
	}
	for _, v := range []uint32{p.OldSize, p.OldCRC, p.NewSize, p.NewCRC} {
		n, err = writeUint32(w, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// InfoZipUnicodePath is the Info-ZIP Unicode Path extra field, header-id
// 0x7075: a CRC-32 of the classic file name plus its UTF-8 replacement.
type InfoZipUnicodePath struct {
	Version    uint8
	NameCRC32  uint32
	UnicodeName string
}

func (InfoZipUnicodePath) HeaderID() uint16 { return 0x7075 }

func (u InfoZipUnicodePath) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := w.Write([]byte{u.Version})
	total += int64(n)
	if err != nil {
		return total, err
	}
	n64, err := writeUint32(w, u.NameCRC32)
	total += n64
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte(u.UnicodeName))
	total += int64(n)
	return total, err
}

// OpaquePayload carries an extra field payload (or a ZIP64 extensible data
// sector payload) whose header-id is not one of the known variants, or
// whose bytes a mutator set directly and wants written verbatim.
type OpaquePayload struct {
	ID   uint16
	Data []byte
}

func (o OpaquePayload) HeaderID() uint16 { return o.ID }

func (o OpaquePayload) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.Data)
	return int64(n), err
}
