// Package codec is a uniform compress/decompress facade over the handful
// of ZIP compression methods this project actually understands. Every
// other method tag in zipmodel.CompressionMethod is legal to write into an
// archive but cannot round-trip here; ErrNotImplemented marks that case so
// callers can keep the original payload bytes and just re-tag the method.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// ErrNotImplemented marks a CompressionMethod this facade does not carry a
// codec for. It is never returned for STORED, DEFLATED, BZIP2, ZSTD, LZMA,
// or XZ.
var ErrNotImplemented = errors.New("codec: method not implemented")

// Compress encodes data under method, returning ErrNotImplemented for any
// method not in the supported set.
func Compress(method zipmodel.CompressionMethod, data []byte) ([]byte, error) {
	switch method {
	case zipmodel.Stored:
		return data, nil
	case zipmodel.Deflated:
		return deflateCompress(data)
	case zipmodel.BZIP2:
		return bzip2Compress(data)
	case zipmodel.ZSTD:
		return zstdCompress(data)
	case zipmodel.LZMA:
		return lzmaCompress(data)
	case zipmodel.XZ:
		return xzCompress(data)
	default:
		return nil, fmt.Errorf("codec: compress method %d: %w", method, ErrNotImplemented)
	}
}

// Decompress reverses Compress, returning ErrNotImplemented under the same
// condition.
func Decompress(method zipmodel.CompressionMethod, data []byte) ([]byte, error) {
	switch method {
	case zipmodel.Stored:
		return data, nil
	case zipmodel.Deflated:
		return deflateDecompress(data)
	case zipmodel.BZIP2:
		return bzip2Decompress(data)
	case zipmodel.ZSTD:
		return zstdDecompress(data)
	case zipmodel.LZMA:
		return lzmaDecompress(data)
	case zipmodel.XZ:
		return xzDecompress(data)
	default:
		return nil, fmt.Errorf("codec: decompress method %d: %w", method, ErrNotImplemented)
	}
}

func deflateCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("codec: deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: deflate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

func deflateDecompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: deflate read: %w", err)
	}
	return out, nil
}

func bzip2Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: bzip2 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: bzip2 close: %w", err)
	}
	return buf.Bytes(), nil
}

func bzip2Decompress(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("codec: bzip2 reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: bzip2 read: %w", err)
	}
	return out, nil
}

func zstdCompress(data []byte) ([]byte, error) {
	out, err := zstd.Compress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd compress: %w", err)
	}
	return out, nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	out, err := zstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decompress: %w", err)
	}
	return out, nil
}

func lzmaCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("codec: lzma writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: lzma write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lzma close: %w", err)
	}
	return buf.Bytes(), nil
}

func lzmaDecompress(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: lzma reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: lzma read: %w", err)
	}
	return out, nil
}

func xzCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("codec: xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("codec: xz write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: xz close: %w", err)
	}
	return buf.Bytes(), nil
}

func xzDecompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: xz reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: xz read: %w", err)
	}
	return out, nil
}
