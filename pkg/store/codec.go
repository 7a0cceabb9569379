package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how loose objects are compressed on disk.
// Reads detect the codec from the stored bytes, so the setting can change
// without rewriting existing objects.
type Compression string

const (
	CompressionZlib Compression = "zlib"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
	CompressionNone Compression = "none"

	DefaultCompression = CompressionZlib
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// ParseCompression converts a core.compression value.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return DefaultCompression, nil
	case CompressionZlib, CompressionZstd, CompressionLZ4, CompressionNone:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q", s)
	}
}

// compress encodes data with c.
func (c Compression) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser

	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	case CompressionZlib, "":
		w = zlib.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectCompression identifies the codec from the leading bytes.
func detectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, lz4Magic):
		return CompressionLZ4
	case len(head) > 0 && head[0] == 0x78:
		return CompressionZlib
	default:
		return CompressionNone
	}
}

// newDecompressReader returns a reader over the decoded stream of r.
func newDecompressReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch detectCompression(head) {
	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(br)), nil
	case CompressionZlib:
		return zlib.NewReader(br)
	default:
		return io.NopCloser(br), nil
	}
}

// decompress decodes a whole stored object.
func decompress(data []byte) ([]byte, error) {
	rc, err := newDecompressReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// readHeader decodes only as far as the header's NUL byte.
func readHeader(r io.Reader) ([]byte, error) {
	rc, err := newDecompressReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// "commit 18446744073709551615\0" is the longest possible header.
	head := make([]byte, 0, 32)
	one := make([]byte, 1)
	for len(head) < 32 {
		if _, err := io.ReadFull(rc, one); err != nil {
			return nil, err
		}
		head = append(head, one[0])
		if one[0] == 0 {
			return head, nil
		}
	}
	return nil, fmt.Errorf("object header too long")
}
