package local_file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/diag"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func newContext(t *testing.T, path string) *execution.Context {
	t.Helper()
	ctx, _ := testutil.Context(t)
	b := &Extractor{}
	values := schema.NewValues("test", b.Definition().Properties, map[string]cty.Value{"filePath": cty.StringVal(path)})
	return execution.NewContext(ctx, "P", "Read", b.Kind(), values, nil)
}

func TestExtractor_ReadsFile(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"data/cars.csv": "name,mpg\nfoo,21\n"})
	ec := newContext(t, filepath.Join(dir, "data", "cars.csv"))

	out, err := (&Extractor{}).Run(ec.Context(), nil, ec)
	require.NoError(t, err)

	f, ok := out.(*artifact.File)
	require.True(t, ok)
	assert.Equal(t, "cars.csv", f.Name)
	assert.Equal(t, "csv", f.Extension)
	assert.Equal(t, "name,mpg\nfoo,21\n", string(f.Content))
}

func TestExtractor_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	testCases := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"missing", filepath.Join(dir, "nope.csv"), "Cannot read file"},
		{"directory", filepath.Join(dir, "sub"), "is a directory"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ec := newContext(t, tc.path)
			_, err := (&Extractor{}).Run(ec.Context(), nil, ec)
			require.Error(t, err)

			var d *diag.Diagnostic
			require.ErrorAs(t, err, &d)
			assert.Equal(t, "filePath", d.Property)
			assert.Equal(t, "Read", d.Block)
			assert.Contains(t, d.Message, tc.wantMsg)
		})
	}
}
