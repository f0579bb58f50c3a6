package http_file

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

func newContext(t *testing.T, props map[string]cty.Value) *execution.Context {
	t.Helper()
	ctx, _ := testutil.Context(t)
	b := &Extractor{}
	values := schema.NewValues("test", b.Definition().Properties, props)
	return execution.NewContext(ctx, "P", "Fetch", b.Kind(), values, nil)
}

func TestExtractor_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	ec := newContext(t, map[string]cty.Value{"url": cty.StringVal(srv.URL + "/data/cars.csv")})
	out, err := (&Extractor{}).Run(ec.Context(), nil, ec)
	require.NoError(t, err)

	f := out.(*artifact.File)
	assert.Equal(t, "cars.csv", f.Name)
	assert.Equal(t, "text/csv", f.MimeType)
	assert.Equal(t, "a,b\n1,2\n", string(f.Content))
}

func TestExtractor_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ec := newContext(t, map[string]cty.Value{
		"url":                      cty.StringVal(srv.URL),
		"fileName":                 cty.StringVal("status.txt"),
		"retries":                  cty.NumberIntVal(3),
		"retryBackoffMilliseconds": cty.NumberIntVal(1),
	})
	out, err := (&Extractor{}).Run(ec.Context(), nil, ec)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "status.txt", out.(*artifact.File).Name)
	assert.Equal(t, "ok", string(out.(*artifact.File).Content))
}

func TestExtractor_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ec := newContext(t, map[string]cty.Value{"url": cty.StringVal(srv.URL)})
	_, err := (&Extractor{}).Run(ec.Context(), nil, ec)

	var d *diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "url", d.Property)
	assert.Contains(t, d.Message, "HTTP fetch failed with code 404")
}

func TestValidURL(t *testing.T) {
	assert.NoError(t, validURL(cty.StringVal("https://example.com/x.csv")))
	assert.ErrorIs(t, validURL(cty.StringVal("ftp://example.com/x.csv")), errNotHTTP)
	assert.ErrorIs(t, validURL(cty.StringVal("http:///x.csv")), errNoHost)
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "cars.csv", fileNameFromURL("https://example.com/a/cars.csv?x=1"))
	assert.Equal(t, defaultFileName, fileNameFromURL("https://example.com/"))
	assert.Equal(t, defaultFileName, fileNameFromURL("https://example.com"))
}
