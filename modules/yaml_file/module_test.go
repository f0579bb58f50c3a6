package yaml_file

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
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

func stations(t *testing.T) *artifact.Table {
	t.Helper()
	table := artifact.NewTable(
		artifact.Column{Name: "station", Type: valuetype.Text},
		artifact.Column{Name: "elevation", Type: valuetype.Integer},
		artifact.Column{Name: "active", Type: valuetype.Boolean},
		artifact.Column{Name: "lat", Type: valuetype.Decimal},
	)
	require.NoError(t, table.AddRow([]cty.Value{cty.StringVal("Zugspitze"), cty.NumberIntVal(2962), cty.True, cty.NumberFloatVal(47.42)}))
	require.NoError(t, table.AddRow([]cty.Value{cty.StringVal("Brocken"), cty.NumberIntVal(1141), cty.False, cty.NumberFloatVal(51.8)}))
	return table
}

func runLoader(t *testing.T, path string) error {
	t.Helper()
	b := &Loader{}
	ctx, _ := testutil.Context(t)
	values := schema.NewValues("Save", b.Definition().Properties, map[string]cty.Value{"file": cty.StringVal(path)})
	ec := execution.NewContext(ctx, "P", "Save", b.Kind(), values, nil)
	res, err := b.Run(ctx, stations(t), ec)
	assert.Nil(t, res)
	return err
}

func TestLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "stations.yaml")
	require.NoError(t, runLoader(t, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `- station: Zugspitze
  elevation: 2962
  active: true
  lat: 47.42
- station: Brocken
  elevation: 1141
  active: false
  lat: 51.8
`, string(content))

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal(content, &records))
	assert.Equal(t, "Brocken", records[1]["station"])
}

func TestLoader_WriteError(t *testing.T) {
	dir := t.TempDir()

	err := runLoader(t, dir)

	var d *diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "file", d.Property)
	assert.Contains(t, d.Message, "Cannot write")
}

func TestMarshal_Empty(t *testing.T) {
	out, err := Marshal(artifact.NewTable(artifact.Column{Name: "a", Type: valuetype.Text}))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}
