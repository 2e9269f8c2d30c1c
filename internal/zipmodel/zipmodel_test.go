package zipmodel_test

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

func TestByteCountMatchesActualWriteLength(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "a.txt", []byte("hello world")))
	require.NoError(t, zipmodel.AddSimple(a, "b.txt", []byte("goodbye")))
	require.NoError(t, a.Finalize())

	n, err := zipmodel.ByteCount(a.Files[0].LFH)
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := a.Files[0].LFH.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, n, written)
	require.Equal(t, int(n), buf.Len())
}

func TestCRC32PatchProducesTargetChecksum(t *testing.T) {
	data := []byte("arbitrary prefix bytes that stay fixed")
	target := uint32(0xdeadbeef)

	patch := zipmodel.CRC32Patch(data, target)
	got := crc32.ChecksumIEEE(append(append([]byte(nil), data...), patch[:]...))
	require.Equal(t, target, got)
}

func TestCRC32PatchWorksOnEmptyData(t *testing.T) {
	target := uint32(0x12345678)
	patch := zipmodel.CRC32Patch(nil, target)
	got := crc32.ChecksumIEEE(patch[:])
	require.Equal(t, target, got)
}

func TestSizeFieldSaturatesWhenWide(t *testing.T) {
	f := zipmodel.U64Size(1 << 40)
	require.True(t, f.IsWide())
	require.Equal(t, uint32(0xffffffff), f.Saturate())
	require.Equal(t, uint64(1<<40), f.Value())
}

func TestSizeFieldNarrowRoundTrips(t *testing.T) {
	f := zipmodel.U32Size(1234)
	require.False(t, f.IsWide())
	require.Equal(t, uint32(1234), f.Saturate())
	require.Equal(t, uint64(1234), f.Value())
}

func TestSizeFieldWidenPreservesValue(t *testing.T) {
	f := zipmodel.U32Size(42)
	f.Widen()
	require.True(t, f.IsWide())
	require.Equal(t, uint64(42), f.Value())
}

func TestLocalFileHeaderSetCompressedSizeWidensOnOverflow(t *testing.T) {
	var h zipmodel.LocalFileHeader
	h.SetCompressedSize(1 << 33)
	require.True(t, h.CompressedSize.IsWide())

	h.SetCompressedSize(10)
	require.False(t, h.CompressedSize.IsWide())
}

func TestArchiveFinalizeRecomputesOffsetsInOrder(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "first.txt", []byte("111")))
	require.NoError(t, zipmodel.AddSimple(a, "second.txt", []byte("2222222")))
	require.NoError(t, a.Finalize())

	require.Equal(t, uint64(0), a.CD[0].RelativeOffset.Value())

	firstLFHLen, err := zipmodel.ByteCount(a.Files[0].LFH)
	require.NoError(t, err)
	wantSecondOffset := uint64(firstLFHLen) + uint64(len(a.Files[0].Data))
	require.Equal(t, wantSecondOffset, a.CD[1].RelativeOffset.Value())
}

func TestArchiveWriteToStartsWithLocalFileHeaderSignature(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "x.txt", []byte("x")))
	require.NoError(t, a.Finalize())

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, buf.Bytes()[:4])
}

func TestEndOfCentralDirectoryTrailsOutput(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "x.txt", []byte("x")))
	require.NoError(t, a.Finalize())

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)

	eocdLen, err := zipmodel.ByteCount(a.EOCD)
	require.NoError(t, err)
	tail := buf.Bytes()[buf.Len()-int(eocdLen):]
	require.Equal(t, []byte{0x50, 0x4b, 0x05, 0x06}, tail[:4])
}

func TestExtraFieldFinalizeResyncsSizeAndHeaderID(t *testing.T) {
	size := uint64(100)
	z := zipmodel.Zip64ExtendedInfo{OriginalSize: &size}
	f := zipmodel.ExtraField{Data: z}
	require.NoError(t, f.Finalize())
	require.Equal(t, uint16(1), f.HeaderID)
	require.Equal(t, uint16(8), f.Size)
}

func TestZip64ExtendedInfoIsEmptyWhenNoSubfieldsSet(t *testing.T) {
	z := zipmodel.Zip64ExtendedInfo{}
	require.True(t, z.IsEmpty())

	size := uint64(5)
	z2 := zipmodel.Zip64ExtendedInfo{OriginalSize: &size}
	require.False(t, z2.IsEmpty())
}

func TestWideArchiveEmitsZip64Records(t *testing.T) {
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "x.txt", []byte("x")))
	require.NoError(t, a.Finalize())
	a.Files[0].LFH.SetCompressedSize(1 << 33)
	a.CD[0].SetOffset(1 << 33)
	require.NoError(t, a.SetEOCD(false))

	require.NotNil(t, a.Zip64EOCD)
	require.NotNil(t, a.Zip64Locator)
	require.Equal(t, uint32(0xffffffff), a.EOCD.CDOffset)
}
