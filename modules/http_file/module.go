// Package http_file provides a block that downloads a file over HTTP.
package http_file

import (
	"context"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// defaultFileName names downloads whose URL has no usable last path segment.
const defaultFileName = "download"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Extractor{})
}

// Extractor is the HttpExtractor block kind.
type Extractor struct{}

func (*Extractor) Kind() string { return "HttpExtractor" }

func (*Extractor) Definition() registry.Definition {
	return registry.Definition{
		Description: "Downloads a file with an HTTP GET request.",
		Input:       iotype.None,
		Output:      iotype.File,
		Properties: schema.Properties{
			{Name: "url", Type: valuetype.Text, Description: "The URL to fetch.", Validate: validURL},
			{Name: "fileName", Type: valuetype.Text, Default: cty.StringVal(""),
				Description: "Name of the resulting file. Defaults to the last segment of the URL path."},
			{Name: "retries", Type: valuetype.Integer, Default: cty.NumberIntVal(0), Validate: schema.NotNegative,
				Description: "How often a failed request is repeated."},
			{Name: "retryBackoffMilliseconds", Type: valuetype.Integer, Default: cty.NumberIntVal(2000), Validate: schema.NotNegative,
				Description: "Wait time between retries."},
		},
	}
}

func validURL(v cty.Value) error {
	u, err := url.Parse(v.AsString())
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errNotHTTP
	}
	if u.Host == "" {
		return errNoHost
	}
	return nil
}

func (*Extractor) Run(ctx context.Context, _ artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	rawURL := ec.GetText("url")
	retries := int(ec.GetInteger("retries"))
	backoff := time.Duration(ec.GetInteger("retryBackoffMilliseconds")) * time.Millisecond

	client := newClient(retries, backoff)
	defer client.Close()

	ec.LogDebug("Fetching file", "url", rawURL, "retries", retries, "backoff", backoff)
	resp, err := client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ec.PropertyErrorf("url", "HTTP fetch of %s failed: %s", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, ec.PropertyErrorf("url", "HTTP fetch failed with code %d. Please check your connection.", resp.StatusCode())
	}

	name := ec.GetText("fileName")
	if name == "" {
		name = fileNameFromURL(rawURL)
	}
	mimeType := ""
	if mt, _, err := mime.ParseMediaType(resp.Header().Get("Content-Type")); err == nil {
		mimeType = mt
	}

	content := resp.Bytes()
	ec.LogInfo("Fetched file", "url", rawURL, "status", resp.StatusCode(), "bytes", len(content), "mime_type", mimeType)
	return artifact.NewFile(name, content, mimeType), nil
}

// newClient creates a resty client that retries temporary failures with a
// constant backoff.
func newClient(retries int, backoff time.Duration) *resty.Client {
	return resty.New().
		SetRetryCount(retries).
		SetRetryStrategy(func(*resty.Response, error) (time.Duration, error) {
			return backoff, nil
		})
}

func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFileName
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return defaultFileName
	}
	return base
}
