package integration_tests

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pipegridgo/internal/app"
	"github.com/vk/pipegridgo/internal/cli"
	"github.com/vk/pipegridgo/internal/hcl_adapter"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/testutil"
	"github.com/vk/pipegridgo/modules/print"
	"gopkg.in/yaml.v3"
)

// report mirrors the yaml run report the CLI prints.
type report struct {
	Valid       bool `yaml:"valid"`
	Errors      int  `yaml:"errors"`
	Warnings    int  `yaml:"warnings"`
	Diagnostics []struct {
		Severity string `yaml:"severity"`
		Message  string `yaml:"message"`
		Block    string `yaml:"block"`
	} `yaml:"diagnostics"`
	Runs []struct {
		Pipeline  string   `yaml:"pipeline"`
		Succeeded bool     `yaml:"succeeded"`
		Completed []string `yaml:"completed_blocks"`
		Skipped   []string `yaml:"skipped_blocks"`
		Error     string   `yaml:"error"`
	} `yaml:"runs"`
}

type harness struct {
	printed *testutil.SafeBuffer
	logs    *testutil.SafeBuffer
}

// modules returns the core modules with the table printer writing into
// h.printed.
func (h *harness) modules() []registry.Module {
	mods := make([]registry.Module, 0, len(app.CoreModules))
	for _, m := range app.CoreModules {
		if _, ok := m.(*print.Module); ok {
			m = &print.Module{Out: h.printed}
		}
		mods = append(mods, m)
	}
	return mods
}

// run executes the CLI with a yaml report and decodes it.
func run(t *testing.T, args ...string) (*report, *harness, error) {
	t.Helper()
	h := &harness{printed: &testutil.SafeBuffer{}, logs: &testutil.SafeBuffer{}}
	out := &bytes.Buffer{}
	err := cli.Execute(context.Background(), cli.Options{
		Out:     out,
		Err:     h.logs,
		Loader:  hcl_adapter.NewLoader(),
		Modules: h.modules(),
	}, append([]string{"--output", "yaml", "--log-level", "debug"}, args...))

	var r report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &r), "report:\n%s", out.String())
	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("logs:\n%s", h.logs.String())
		}
	})
	return &r, h, err
}
