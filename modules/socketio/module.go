// Package socketio provides a loader that streams table rows to a Socket.IO
// server.
package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/pipegridgo/internal/artifact"
	"github.com/vk/pipegridgo/internal/execution"
	"github.com/vk/pipegridgo/internal/iotype"
	"github.com/vk/pipegridgo/internal/registry"
	"github.com/vk/pipegridgo/internal/schema"
	"github.com/vk/pipegridgo/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegisterBlock(&Loader{})
}

// Loader is the SocketIOLoader block kind.
type Loader struct{}

func (*Loader) Kind() string { return "SocketIOLoader" }

func (*Loader) Definition() registry.Definition {
	return registry.Definition{
		Description: "Emits every row of a table as one Socket.IO event.",
		Input:       iotype.Table,
		Output:      iotype.None,
		Properties: schema.Properties{
			{Name: "url", Type: valuetype.Text, Validate: validURL,
				Description: "The server URL, e.g. ws://localhost:3000/socket.io/."},
			{Name: "namespace", Type: valuetype.Text, Default: cty.StringVal("/"),
				Description: "The Socket.IO namespace to connect to."},
			{Name: "event", Type: valuetype.Text, Default: cty.StringVal("row"), Validate: schema.NotEmpty,
				Description: "The event name rows are emitted under."},
			{Name: "timeoutMilliseconds", Type: valuetype.Integer, Default: cty.NumberIntVal(10000), Validate: schema.NotNegative,
				Description: "How long to wait for the connection."},
			{Name: "insecureSkipVerify", Type: valuetype.Boolean, Default: cty.False,
				Description: "Skip TLS certificate verification."},
		},
	}
}

func validURL(v cty.Value) error {
	u, err := url.Parse(v.AsString())
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q, expected http, https, ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("the URL has no host")
	}
	return nil
}

func (*Loader) Run(ctx context.Context, input artifact.Artifact, ec *execution.Context) (artifact.Artifact, error) {
	t := input.(*artifact.Table)
	rawURL := ec.GetText("url")
	namespace := ec.GetText("namespace")
	event := ec.GetText("event")
	timeout := time.Duration(ec.GetInteger("timeoutMilliseconds")) * time.Millisecond

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ec.PropertyErrorf("url", "Invalid URL %q: %s", rawURL, err)
	}

	opts := socket.DefaultOptions()
	if u.Path != "" && u.Path != "/" {
		opts.SetPath(u.Path)
	}
	if ec.GetBoolean("insecureSkipVerify") {
		ec.LogWarn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", u.Scheme, u.Host), opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		ec.LogDebug("Disconnecting socket client")
		io.Disconnect()
	}()

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	ec.LogDebug("Connecting", "url", rawURL, "namespace", namespace)
	io.Connect()

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case <-connectCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ec.PropertyErrorf("url", "Timed out after %s while connecting to %s", timeout, rawURL)
	case err := <-connected:
		if err != nil {
			return nil, ec.PropertyErrorf("url", "Cannot connect to %s: %s", rawURL, err)
		}
	}
	ec.LogInfo("Connected", "namespace", namespace, "sid", io.Id())

	for i, record := range t.Records() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := io.Emit(event, record); err != nil {
			return nil, ec.PropertyErrorf("event", "Cannot emit row %d as %q: %s", i+1, event, err)
		}
	}
	if err := waitFlushed(ctx, io.Io(), timeout); err != nil {
		return nil, ec.Errorf("Not every row reached %s: %s", rawURL, err)
	}

	ec.LogInfo("Emitted rows", "event", event, "rows", t.NumRows())
	return nil, nil
}

// waitFlushed blocks until the engine has handed every buffered packet to the
// transport and the transport has finished writing them. Disconnecting
// earlier closes the websocket under an in-flight write.
func waitFlushed(ctx context.Context, m *socket.Manager, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		e := m.Engine()
		if e == nil {
			return errors.New("the connection was closed")
		}
		if e.WriteBuffer().Len() == 0 && e.Transport() != nil && e.Transport().Writable() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
