package objects

import (
	"bytes"
	"fmt"
	"strconv"
)

// Header returns the canonical object header "<kind> <size>\0".
func Header(kind ObjectType, size int) []byte {
	h := make([]byte, 0, len(kind)+12)
	h = append(h, kind...)
	h = append(h, SpaceByte)
	h = strconv.AppendInt(h, int64(size), 10)
	return append(h, NullByte)
}

// Encode returns the canonical serialized form "<kind> <size>\0<content>".
// The object digest is the hash of exactly these bytes.
func Encode(kind ObjectType, content []byte) []byte {
	out := Header(kind, len(content))
	return append(out, content...)
}

// ParseHeader parses a canonical header at the start of data and returns
// the kind, declared payload size and the offset of the payload.
func ParseHeader(data []byte) (ObjectType, int64, int, error) {
	nullIndex := bytes.IndexByte(data, NullByte)
	if nullIndex == -1 {
		return "", 0, 0, fmt.Errorf("invalid object header: missing null byte")
	}

	spaceIndex := bytes.IndexByte(data[:nullIndex], SpaceByte)
	if spaceIndex == -1 {
		return "", 0, 0, fmt.Errorf("invalid object header: missing space")
	}

	kind, err := ParseObjectType(string(data[:spaceIndex]))
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid object header: %w", err)
	}

	size, err := strconv.ParseInt(string(data[spaceIndex+1:nullIndex]), 10, 64)
	if err != nil || size < 0 {
		return "", 0, 0, fmt.Errorf("invalid size in header %q", data[spaceIndex+1:nullIndex])
	}

	return kind, size, nullIndex + 1, nil
}

// Decode splits a canonical encoding into kind and payload, checking that
// the declared size matches.
func Decode(data []byte) (ObjectType, []byte, error) {
	kind, size, start, err := ParseHeader(data)
	if err != nil {
		return "", nil, err
	}

	content := data[start:]
	if int64(len(content)) != size {
		return "", nil, fmt.Errorf("content size mismatch: header says %d, got %d", size, len(content))
	}
	return kind, content, nil
}
