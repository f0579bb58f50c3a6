package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/testutil"
)

func TestFindFilesByExtension(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"b.hcl":             "",
		"a/main.hcl":        "",
		"a/notes.txt":       "",
		"a/deep/more.hcl":   "",
		".git/config.hcl":   "",
		"a/.cache/skip.hcl": "",
	})

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "deep", "more.hcl"),
		filepath.Join(root, "a", "main.hcl"),
		filepath.Join(root, "b.hcl"),
	}, files)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")
	assert.Error(t, err)
}

func TestFindFilesByExtension_EmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(".", "") })
}
