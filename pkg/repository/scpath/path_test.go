package scpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelativePath(t *testing.T) {
	tests := []struct {
		in      string
		want    RelativePath
		wantErr bool
	}{
		{in: "file.txt", want: "file.txt"},
		{in: "./src/main.go", want: "src/main.go"},
		{in: "src//lib/../util.go", want: "src/util.go"},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "../outside", wantErr: true},
		{in: ".source/HEAD", wantErr: true},
		{in: "a/.source/x", wantErr: true},
		{in: "bad\x00name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewRelativePath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativePathParts(t *testing.T) {
	rp := RelativePath("src/utils/helper.go")
	assert.Equal(t, []string{"src", "utils", "helper.go"}, rp.Components())
	assert.Equal(t, "helper.go", rp.Base())
	assert.Equal(t, RelativePath("src/utils"), rp.Dir())
	assert.Equal(t, RelativePath(""), RelativePath("top.txt").Dir())
}

func TestSourcePathLayout(t *testing.T) {
	root := RepositoryPath(filepath.FromSlash("/repo"))
	sp := root.SourcePath()

	assert.Equal(t, filepath.FromSlash("/repo/.source"), sp.String())
	assert.Equal(t, filepath.FromSlash("/repo/.source/objects/ab/cdef01"), sp.ObjectFilePath("ABCDEF01").String())
	assert.Equal(t, SourcePath(""), sp.ObjectFilePath("ab"))
	assert.Equal(t, filepath.FromSlash("/repo/.source/refs/heads/main"), sp.RefFilePath("refs/heads/main").String())
	assert.Equal(t, filepath.FromSlash("/repo/.source/logs/HEAD"), sp.LogFilePath("HEAD").String())
	assert.Equal(t, filepath.FromSlash("/repo/.source/config.json"), sp.ConfigPath().String())
	assert.Equal(t, filepath.FromSlash("/repo/.source/gc.lock"), sp.GCLockPath().String())
}
