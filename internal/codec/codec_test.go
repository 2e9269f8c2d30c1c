package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/codec"
	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

func TestRoundTripSupportedMethods(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, for padding")
	methods := []zipmodel.CompressionMethod{
		zipmodel.Stored,
		zipmodel.Deflated,
		zipmodel.BZIP2,
		zipmodel.ZSTD,
		zipmodel.LZMA,
		zipmodel.XZ,
	}

	for _, m := range methods {
		m := m
		t.Run(compressionMethodName(m), func(t *testing.T) {
			compressed, err := codec.Compress(m, payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(m, compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)
		})
	}
}

func TestUnsupportedMethodsReturnNotImplemented(t *testing.T) {
	methods := []zipmodel.CompressionMethod{
		zipmodel.Shrunk,
		zipmodel.Reduced1,
		zipmodel.Reduced2,
		zipmodel.Reduced3,
		zipmodel.Reduced4,
		zipmodel.Imploded,
		zipmodel.Deflate64,
		zipmodel.MP3,
		zipmodel.JPEG,
		zipmodel.CompressionMethod(12345),
	}

	for _, m := range methods {
		m := m
		t.Run(compressionMethodName(m), func(t *testing.T) {
			_, err := codec.Compress(m, []byte("payload"))
			require.ErrorIs(t, err, codec.ErrNotImplemented)

			_, err = codec.Decompress(m, []byte("payload"))
			require.ErrorIs(t, err, codec.ErrNotImplemented)
		})
	}
}

func TestEmptyPayloadRoundTrips(t *testing.T) {
	for _, m := range []zipmodel.CompressionMethod{zipmodel.Stored, zipmodel.Deflated, zipmodel.ZSTD} {
		compressed, err := codec.Compress(m, nil)
		require.NoError(t, err)

		decompressed, err := codec.Decompress(m, compressed)
		require.NoError(t, err)
		require.Empty(t, decompressed)
	}
}

func compressionMethodName(m zipmodel.CompressionMethod) string {
	switch m {
	case zipmodel.Stored:
		return "Stored"
	case zipmodel.Shrunk:
		return "Shrunk"
	case zipmodel.Reduced1:
		return "Reduced1"
	case zipmodel.Reduced2:
		return "Reduced2"
	case zipmodel.Reduced3:
		return "Reduced3"
	case zipmodel.Reduced4:
		return "Reduced4"
	case zipmodel.Imploded:
		return "Imploded"
	case zipmodel.Deflated:
		return "Deflated"
	case zipmodel.Deflate64:
		return "Deflate64"
	case zipmodel.BZIP2:
		return "BZIP2"
	case zipmodel.LZMA:
		return "LZMA"
	case zipmodel.ZSTD:
		return "ZSTD"
	case zipmodel.MP3:
		return "MP3"
	case zipmodel.XZ:
		return "XZ"
	case zipmodel.JPEG:
		return "JPEG"
	default:
		return "Unknown"
	}
}
