package zipmodel

import "io"

const (
	eocdSignature       = 0x06054b50
	zip64LocatorSignature = 0x07064b50
	zip64EocdSignature  = 0x06064b50
)

// EndOfCentralDirectoryRecord is the archive's final record: whatever a
// reader trusts to find the central directory at all. AllFF forces every
// ZIP64-indicator field to its sentinel value regardless of whether the
// real counts need it, for mutators probing "claims ZIP64 but there isn't
// one" and its inverse.
type EndOfCentralDirectoryRecord struct {
	DiskNumber    uint16
	CDStartDisk   uint16
	EntriesOnDisk uint16
	TotalEntries  uint16
	CDSize        uint32
	CDOffset      uint32
	Comment       []byte

	CommentLength uint16
}

// AllFF returns a record with every count/offset field set to its 16- or
// 32-bit all-ones sentinel, the form APPNOTE requires when a ZIP64 EOCD
// record supersedes this one.
func AllFF() EndOfCentralDirectoryRecord {
	return EndOfCentralDirectoryRecord{
		DiskNumber:    0xffff,
		CDStartDisk:   0xffff,
		EntriesOnDisk: 0xffff,
		TotalEntries:  0xffff,
		CDSize:        0xffffffff,
		CDOffset:      0xffffffff,
	}
}

// TryFromZip64 builds a record from true 64-bit counts, saturating any
// field that overflows its 16- or 32-bit width to the ZIP64 sentinel
// instead of truncating it.
func TryFromZip64(entries uint64, cdSize, cdOffset uint64) EndOfCentralDirectoryRecord {
	r := EndOfCentralDirectoryRecord{}
	if entries > 0xfffe {
		r.EntriesOnDisk = 0xffff
		r.TotalEntries = 0xffff
	} else {
		r.EntriesOnDisk = uint16(entries)
		r.TotalEntries = uint16(entries)
	}
	if cdSize > 0xfffffffe {
		r.CDSize = 0xffffffff
	} else {
		r.CDSize = uint32(cdSize)
	}
	if cdOffset > 0xfffffffe {
		r.CDOffset = 0xffffffff
	} else {
		r.CDOffset = uint32(cdOffset)
	}
	return r
}

// Finalize resyncs CommentLength to len(Comment).
func (r *EndOfCentralDirectoryRecord) Finalize() error {
	if len(r.Comment) > 0xffff {
		return wrapf(KindEncoding, "EndOfCentralDirectoryRecord.Finalize", "comment too long: %d bytes", len(r.Comment))
	}
	r.CommentLength = uint16(len(r.Comment))
	return nil
}

func (r EndOfCentralDirectoryRecord) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, write := range []func() (int64, error){
		func() (int64, error) { return writeUint32(w, eocdSignature) },
		func() (int64, error) { return writeUint16(w, r.DiskNumber) },
		func() (int64, error) { return writeUint16(w, r.CDStartDisk) },
		func() (int64, error) { return writeUint16(w, r.EntriesOnDisk) },
		func() (int64, error) { return writeUint16(w, r.TotalEntries) },
		func() (int64, error) { return writeUint32(w, r.CDSize) },
		func() (int64, error) { return writeUint32(w, r.CDOffset) },
		func() (int64, error) { return writeUint16(w, r.CommentLength) },
		func() (int64, error) { n, err := w.Write(r.Comment); return int64(n), err },
	} {
		n, err := write()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Zip64EndOfCentralDirectoryLocator tells a reader where to find the ZIP64
// EOCD record. It always immediately precedes the classic EOCDR, but
// nothing stops a mutator from pointing it somewhere else.
type Zip64EndOfCentralDirectoryLocator struct {
	DiskWithZip64EOCD uint32
	Zip64EOCDOffset   uint64
	TotalDisks        uint32
}

// FromOffset returns a locator pointing at offset on disk 0 of 1.
func FromOffset(offset uint64) Zip64EndOfCentralDirectoryLocator {
	return Zip64EndOfCentralDirectoryLocator{TotalDisks: 1, Zip64EOCDOffset: offset}
}

func (l Zip64EndOfCentralDirectoryLocator) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeUint32(w, zip64LocatorSignature)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint32(w, l.DiskWithZip64EOCD)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint64(w, l.Zip64EOCDOffset)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint32(w, l.TotalDisks)
	total += n
	return total, err
}

// Zip64EocdrV2 is the optional "version 2" extension to the ZIP64 EOCD
// record, used by writers that compress or encrypt the central directory
// itself. Almost nothing produces this in the wild, which makes it a good
// probe for how differently two parsers handle a field they likely never
// tested against.
type Zip64EocdrV2 struct {
	Method           CompressionMethod
	CompressedSize   uint64
	OriginalSize     uint64
	AlgID            uint16
	BitLen           uint16
	Flags            uint16
	HashID           uint16
	HashData         []byte
}

func (v Zip64EocdrV2) byteCount() (int64, error) {
	return ByteCount(v)
}

func (v Zip64EocdrV2) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := v.Method.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	for _, x := range []uint64{v.CompressedSize, v.OriginalSize} {
		n, err = writeUint64(w, x)
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, x := range []uint16{v.AlgID, v.BitLen, v.Flags, v.HashID, uint16(len(v.HashData))} {
		n, err = writeUint16(w, x)
		total += n
		if err != nil {
			return total, err
		}
	}
	nb, err := w.Write(v.HashData)
	total += int64(nb)
	return total, err
}

// Zip64ExtensibleDataSector is one (header-id, size, payload) tuple in a
// ZIP64 EOCD record's extensible data sector, the ZIP64 record's own analog
// of an extra field list. Most writers never populate this; its presence is
// mostly useful for probing a reader's tolerance of the unexpected.
type Zip64ExtensibleDataSector struct {
	HeaderID uint16
	Size     uint32
	Data     ExtraFieldPayload
}

// Finalize resyncs HeaderID and Size to match Data.
func (s *Zip64ExtensibleDataSector) Finalize() error {
	s.HeaderID = s.Data.HeaderID()
	n, err := ByteCount(s.Data)
	if err != nil {
		return wrapf(KindEncoding, "Zip64ExtensibleDataSector.Finalize", "count extensible data sector: %w", err)
	}
	if n > 0xffffffff {
		return wrapf(KindEncoding, "Zip64ExtensibleDataSector.Finalize", "extensible data sector too long: %d bytes", n)
	}
	s.Size = uint32(n)
	return nil
}

func (s Zip64ExtensibleDataSector) byteCount() (int64, error) {
	return ByteCount(s)
}

func (s Zip64ExtensibleDataSector) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeUint16(w, s.HeaderID)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint32(w, s.Size)
	total += n
	if err != nil {
		return total, err
	}
	n, err = s.Data.WriteTo(w)
	total += n
	return total, err
}

// Zip64EndOfCentralDirectoryRecord is the full-width companion to
// EndOfCentralDirectoryRecord that a ZIP64 archive needs once any count or
// offset overflows 32 bits.
type Zip64EndOfCentralDirectoryRecord struct {
	VersionMadeBy   uint16
	VersionNeeded   uint16
	DiskNumber      uint32
	CDStartDisk     uint32
	EntriesOnDisk   uint64
	TotalEntries    uint64
	CDSize          uint64
	CDOffset        uint64

	V2 *Zip64EocdrV2

	// ExtensibleDataSector is written after V2, APPNOTE's extensible data
	// sector of arbitrary (id, size, payload) tuples.
	ExtensibleDataSector []Zip64ExtensibleDataSector

	// SizeOfRecord is the record's self-reported length, excluding the
	// leading 12 bytes (4-byte signature, 8-byte size field). Finalize
	// recomputes it from the fixed fields plus V2's length and the
	// extensible data sector's length if present.
	SizeOfRecord uint64
}

// UseV2 attaches the version-2 extension, which Finalize accounts for when
// computing SizeOfRecord.
func (r *Zip64EndOfCentralDirectoryRecord) UseV2(v Zip64EocdrV2) {
	r.V2 = &v
	r.VersionMadeBy |= 0x0001
}

// Finalize resyncs SizeOfRecord to the record's true remaining length.
func (r *Zip64EndOfCentralDirectoryRecord) Finalize() error {
	const fixedLen = 2 + 2 + 4 + 4 + 8 + 8 + 8 + 8
	total := uint64(fixedLen)
	if r.V2 != nil {
		n, err := r.V2.byteCount()
		if err != nil {
			return wrapf(KindEncoding, "Zip64EndOfCentralDirectoryRecord.Finalize", "count v2 extension: %w", err)
		}
		total += uint64(n)
	}
	for i := range r.ExtensibleDataSector {
		if err := r.ExtensibleDataSector[i].Finalize(); err != nil {
			return err
		}
		n, err := r.ExtensibleDataSector[i].byteCount()
		if err != nil {
			return wrapf(KindEncoding, "Zip64EndOfCentralDirectoryRecord.Finalize", "count extensible data sector: %w", err)
		}
		total += uint64(n)
	}
	r.SizeOfRecord = total
	return nil
}

func (r Zip64EndOfCentralDirectoryRecord) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeUint32(w, zip64EocdSignature)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeUint64(w, r.SizeOfRecord)
	total += n
	if err != nil {
		return total, err
	}
	for _, write := range []func() (int64, error){
		func() (int64, error) { return writeUint16(w, r.VersionMadeBy) },
		func() (int64, error) { return writeUint16(w, r.VersionNeeded) },
		func() (int64, error) { return writeUint32(w, r.DiskNumber) },
		func() (int64, error) { return writeUint32(w, r.CDStartDisk) },
		func() (int64, error) { return writeUint64(w, r.EntriesOnDisk) },
		func() (int64, error) { return writeUint64(w, r.TotalEntries) },
		func() (int64, error) { return writeUint64(w, r.CDSize) },
		func() (int64, error) { return writeUint64(w, r.CDOffset) },
	} {
		n, err = write()
		total += n
		if err != nil {
			return total, err
		}
	}
	if r.V2 != nil {
		n, err = r.V2.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	for i := range r.ExtensibleDataSector {
		n, err = r.ExtensibleDataSector[i].WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
