package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

func TestBlobHashMatchesGit(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want objects.ObjectHash
	}{
		{name: "empty", data: []byte{}, want: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
		{name: "hello world", data: []byte("hello world"), want: "95d09f2b10159347eece71399a7e2e907ea3df4f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBlob(tt.data)
			got, err := objects.Hash(objects.SHA1, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(tt.data)), b.Size())
			assert.Equal(t, objects.BlobType, b.Type())
		})
	}
}

func TestBlobHashDependsOnAlgorithm(t *testing.T) {
	b := NewBlob([]byte("payload"))

	sha1, err := objects.Hash(objects.SHA1, b)
	require.NoError(t, err)
	sha256, err := objects.Hash(objects.SHA256, b)
	require.NoError(t, err)
	b3, err := objects.Hash(objects.BLAKE3, b)
	require.NoError(t, err)

	assert.Len(t, sha1.String(), 40)
	assert.Len(t, sha256.String(), 64)
	assert.Len(t, b3.String(), 64)
	assert.NotEqual(t, sha256, b3)
}
