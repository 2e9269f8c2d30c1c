package zipmodel

import "io"

// FileRecord bundles one archive member's local header, body, and optional
// data descriptor. Nothing in this package keeps it in sync with any
// CentralDirectoryHeader after construction: Archive.Files and Archive.CD
// are independently sized slices, so the file sequence and the central
// directory sequence can disagree in length as well as content, exactly
// the freedom header-location mutators need.
type FileRecord struct {
	LFH LocalFileHeader
	Data []byte
	DD   *DataDescriptor
}

// NewFileRecord builds a local file header pointing at data already encoded
// with method. It does not set RelativeOffset on any central directory
// entry; Archive.Finalize or Archive.SetOffsets does that once entry order
// is fixed.
func NewFileRecord(name string, data []byte, method CompressionMethod, crc32 uint32, uncompressedSize uint64) (FileRecord, error) {
	lfh := LocalFileHeader{
		VersionNeeded: 20,
		Method:        method,
		CRC32:         crc32,
	}
	if err := lfh.SetFileName([]byte(name)); err != nil {
		return FileRecord{}, err
	}
	lfh.SetCompressedSize(uint64(len(data)))
	lfh.SetUncompressedSize(uncompressedSize)
	if err := lfh.Finalize(); err != nil {
		return FileRecord{}, err
	}
	return FileRecord{LFH: lfh, Data: data}, nil
}

func (f FileRecord) byteCount() (int64, error) {
	n, err := ByteCount(f.LFH)
	if err != nil {
		return 0, err
	}
	total := n + int64(len(f.Data))
	if f.DD != nil {
		n, err := ByteCount(f.DD)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (f FileRecord) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := f.LFH.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	nb, err := w.Write(f.Data)
	total += int64(nb)
	if err != nil {
		return total, err
	}
	if f.DD != nil {
		n, err = f.DD.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// newCDHForFile builds the central directory entry a file record would
// carry if the two agreed, at the given byte offset.
func newCDHForFile(f FileRecord, offset uint64) (CentralDirectoryHeader, error) {
	cdh := NewCDHFromLFH(f.LFH, 0x031e)
	cdh.SetOffset(offset)
	if err := cdh.Finalize(); err != nil {
		return CentralDirectoryHeader{}, err
	}
	return cdh, nil
}

// AddSimple stores contents verbatim with CompressionMethod Stored, the
// archive-building equivalent of "just put the file in". It does not touch
// Archive.CD; call Finalize afterward to rebuild the central directory.
func AddSimple(a *Archive, name string, contents []byte) error {
	crc := crc32IEEE(contents)
	f, err := NewFileRecord(name, contents, Stored, crc, uint64(len(contents)))
	if err != nil {
		return err
	}
	a.Files = append(a.Files, f)
	return nil
}

// AddFile appends an already-constructed file record without touching any
// of its fields or the central directory, for callers (mutators,
// construction helpers) that built the header and body by hand.
func (a *Archive) AddFile(f FileRecord) {
	a.Files = append(a.Files, f)
}

// Archive is a complete in-memory ZIP file: local file headers and bodies,
// a central directory, and whichever end-of-central-directory records the
// builder decided to emit. Files and CD are independently sized: nothing
// requires len(Files) == len(CD), and nothing pairs Files[i] with CD[i]
// except by convention during Finalize.
type Archive struct {
	Files        []FileRecord
	CD           []CentralDirectoryHeader
	Zip64Locator *Zip64EndOfCentralDirectoryLocator
	Zip64EOCD    *Zip64EndOfCentralDirectoryRecord
	EOCD         EndOfCentralDirectoryRecord
}

// SetOffsets rewrites RelativeOffset and re-finalizes each central
// directory entry paired with the file record at the same index, starting
// the running offset at base, without growing or shrinking either slice.
// Only min(len(Files), len(CD)) pairs are touched, mirroring the original
// implementation's zip-and-walk over both sequences.
func (a *Archive) SetOffsets(base uint64) error {
	offset := base
	n := len(a.Files)
	if len(a.CD) < n {
		n = len(a.CD)
	}
	for i := 0; i < n; i++ {
		a.CD[i].SetOffset(offset)
		if err := a.CD[i].Finalize(); err != nil {
			return err
		}
		if err := a.Files[i].LFH.Finalize(); err != nil {
			return err
		}
		nb, err := a.Files[i].byteCount()
		if err != nil {
			return wrapf(KindEncoding, "Archive.SetOffsets", "count entry %d: %w", i, err)
		}
		offset += uint64(nb)
	}
	return a.SetEOCD(false)
}

// cdOffsetFromLayout computes the byte offset at which the central
// directory begins, the way the original does: the last central directory
// entry's own relative offset, plus the byte length of the last file
// record. This is not a sum over the whole archive — it assumes the central
// directory's final entry already points at the last file that precedes it.
func (a *Archive) cdOffsetFromLayout() (uint64, error) {
	var offset uint64
	if n := len(a.CD); n > 0 {
		offset += a.CD[n-1].RelativeOffset.Value()
	}
	if n := len(a.Files); n > 0 {
		nb, err := a.Files[n-1].byteCount()
		if err != nil {
			return 0, wrapf(KindEncoding, "Archive.cdOffsetFromLayout", "count last file: %w", err)
		}
		offset += uint64(nb)
	}
	return offset, nil
}

// SetEOCD rebuilds the end-of-central-directory records from the archive's
// current central directory. forceZip64 always emits the ZIP64 record and
// locator even when every count and offset would fit the classic EOCDR.
func (a *Archive) SetEOCD(forceZip64 bool) error {
	cdOffset, err := a.cdOffsetFromLayout()
	if err != nil {
		return err
	}

	var cdSize uint64
	for i := range a.CD {
		n, err := ByteCount(a.CD[i])
		if err != nil {
			return wrapf(KindEncoding, "Archive.SetEOCD", "count entry %d central header: %w", i, err)
		}
		cdSize += uint64(n)
	}

	entries := uint64(len(a.CD))
	needsZip64 := forceZip64 || entries > 0xfffe || cdSize > 0xfffffffe || cdOffset > 0xfffffffe
	if !needsZip64 {
		a.EOCD = TryFromZip64(entries, cdSize, cdOffset)
		a.Zip64EOCD = nil
		a.Zip64Locator = nil
		return nil
	}

	zr := &Zip64EndOfCentralDirectoryRecord{
		VersionMadeBy: 45,
		VersionNeeded: 45,
		EntriesOnDisk: entries,
		TotalEntries:  entries,
		CDSize:        cdSize,
		CDOffset:      cdOffset,
	}
	if err := zr.Finalize(); err != nil {
		return err
	}
	a.Zip64EOCD = zr
	a.EOCD = AllFF()

	zip64RecordOffset := cdOffset + cdSize
	locator := FromOffset(zip64RecordOffset)
	a.Zip64Locator = &locator
	return nil
}

// Finalize rebuilds CD from scratch, one entry per file in Files order,
// lays out offsets, and builds the end-of-central-directory records. A
// mutator that wants a desynced archive calls this once to get a
// consistent baseline and then overwrites whatever field it's probing, or
// pops entries from Files/CD independently to desync their lengths.
func (a *Archive) Finalize() error {
	a.CD = a.CD[:0]

	var offset uint64
	for i := range a.Files {
		cdh, err := newCDHForFile(a.Files[i], offset)
		if err != nil {
			return err
		}
		a.CD = append(a.CD, cdh)
		if err := a.Files[i].LFH.Finalize(); err != nil {
			return err
		}
		nb, err := a.Files[i].byteCount()
		if err != nil {
			return wrapf(KindEncoding, "Archive.Finalize", "count entry %d: %w", i, err)
		}
		offset += uint64(nb)
	}

	return a.SetEOCD(false)
}

func (a Archive) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range a.Files {
		n, err := a.Files[i].WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	for i := range a.CD {
		n, err := a.CD[i].WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	if a.Zip64EOCD != nil {
		n, err := a.Zip64EOCD.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	if a.Zip64Locator != nil {
		n, err := a.Zip64Locator.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := a.EOCD.WriteTo(w)
	total += n
	return total, err
}
