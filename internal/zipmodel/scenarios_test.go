package zipmodel_test

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// TestStoredVsDeflatedTagDesync mirrors a1-1.zip: a DEFLATED entry whose LFH
// is overwritten after the fact to claim Stored with a compressed size that
// no longer matches the CDH's copy of the same field.
func TestStoredVsDeflatedTagDesync(t *testing.T) {
	compressed := []byte{0x2b, 0x49, 0x2d, 0x2e, 0x01, 0x00} // raw deflate of "test"
	crc := crc32.ChecksumIEEE([]byte("test"))

	f, err := zipmodel.NewFileRecord("test", compressed, zipmodel.Deflated, crc, 4)
	require.NoError(t, err)

	a := &zipmodel.Archive{}
	a.AddFile(f)
	require.NoError(t, a.Finalize())

	a.Files[0].LFH.Method = zipmodel.Stored
	a.Files[0].LFH.SetCompressedSize(4)

	var buf bytes.Buffer
	_, err = a.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.Bytes()
	require.Equal(t, []byte{'P', 'K', 0x03, 0x04}, out[:4])
	require.Equal(t, uint16(zipmodel.Stored), uint16(a.Files[0].LFH.Method))
	require.Equal(t, uint16(zipmodel.Deflated), uint16(a.CD[0].Method))
}

// TestDuplicateNamesProduceTwoEntries mirrors S2: two members sharing the
// same name, both present with their own LFH/CDH pair.
func TestDuplicateNamesProduceTwoEntries(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "test", []byte("a")))
	require.NoError(t, zipmodel.AddSimple(a, "test", []byte("b")))
	require.NoError(t, a.Finalize())

	require.Len(t, a.Files, 2)
	require.Equal(t, uint16(2), a.EOCD.TotalEntries)
	require.Equal(t, "test", string(a.Files[0].LFH.FileName))
	require.Equal(t, "test", string(a.Files[1].LFH.FileName))
}

// TestLFHAndCDHNameDisagreement mirrors S3: the local header keeps the name
// the entry was built with while the central directory's copy is overwritten
// independently, both three bytes long.
func TestLFHAndCDHNameDisagreement(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "lfh", []byte("test")))
	require.NoError(t, a.Finalize())

	a.CD[0].FileName = []byte("cdh")
	a.CD[0].FileNameLength = 3

	require.Equal(t, "lfh", string(a.Files[0].LFH.FileName))
	require.Equal(t, "cdh", string(a.CD[0].FileName))
	require.Len(t, a.Files[0].LFH.FileName, 3)
	require.Len(t, a.CD[0].FileName, 3)
}

// TestTrailingOverflowWrapsEntryCount mirrors S4: once a primary EOCDR is
// rebuilt from true 64-bit counts that overflow 16 bits, the 16-bit field
// wraps rather than saturates when a mutator derives it directly instead of
// going through TryFromZip64's own saturation.
func TestTrailingOverflowWrapsEntryCount(t *testing.T) {
	const trueCount = 65537
	wrapped := uint16(trueCount % (1 << 16))
	require.Equal(t, uint16(1), wrapped)

	eocd := zipmodel.EndOfCentralDirectoryRecord{
		EntriesOnDisk: wrapped,
		TotalEntries:  wrapped,
	}
	require.NoError(t, eocd.Finalize())
	require.Equal(t, uint16(1), eocd.TotalEntries)
}

// TestUnicodePathCRCSurvivesNameSubstitution mirrors S5: two names of equal
// length and equal CRC-32, where an Info-ZIP Unicode Path extra field
// computed against one name still matches the CRC stored for the other.
func TestUnicodePathCRCSurvivesNameSubstitution(t *testing.T) {
	const nameA = "oxueekz"
	const nameB = "pyqptgs"
	require.Equal(t, crc32.ChecksumIEEE([]byte(nameA)), crc32.ChecksumIEEE([]byte(nameB)))

	extra := zipmodel.InfoZipUnicodePath{
		Version:     1,
		NameCRC32:   crc32.ChecksumIEEE([]byte(nameA)),
		UnicodeName: nameA,
	}

	fileA, err := zipmodel.NewFileRecord(nameA, []byte("x"), zipmodel.Stored, crc32.ChecksumIEEE([]byte("x")), 1)
	require.NoError(t, err)
	fileA.LFH.FileName = []byte(nameB)
	require.NoError(t, fileA.LFH.Finalize())

	require.Equal(t, extra.NameCRC32, crc32.ChecksumIEEE([]byte(nameB)))
	require.NotEqual(t, nameA, string(fileA.LFH.FileName))
}
