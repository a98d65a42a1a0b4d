package notify

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/shadergrid/internal/pipeline"
	"github.com/vk/shadergrid/internal/testutil"
	sio "github.com/zishang520/socket.io/v2/socket"
)

// newBuildServer starts an in-process socket.io server that forwards the
// first argument of every `event` it receives and, when ackEvent is set,
// answers with it.
func newBuildServer(t *testing.T, event, ackEvent string) (string, <-chan any) {
	t.Helper()

	received := make(chan any, 1)
	srv := sio.NewServer(nil, nil)
	srv.On("connection", func(clients ...any) {
		client := clients[0].(*sio.Socket)
		client.On(event, func(args ...any) {
			if len(args) > 0 {
				received <- args[0]
			}
			if ackEvent != "" {
				client.Emit(ackEvent)
			}
		})
	})

	ts := httptest.NewServer(srv.ServeHandler(nil))
	t.Cleanup(func() {
		srv.Close(nil)
		ts.Close()
	})
	return ts.URL, received
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	n := New(Config{URL: "http://localhost:3000"})

	require.Equal(t, DefaultEvent, n.cfg.Event)
	require.Equal(t, DefaultTimeout, n.cfg.Timeout)
	require.Equal(t, "/", n.cfg.Namespace)
	require.True(t, n.cfg.Enabled())
	require.False(t, Config{}.Enabled())
}

func TestNewPayload(t *testing.T) {
	t.Parallel()

	report := &pipeline.Report{
		Stages: []*pipeline.Result{
			{Artifacts: []string{"a.spv", "a.dxbc", "a.glsl", "a.metal"}, Object: "a.air"},
		},
		Objects: []string{"a.air"},
		Library: "shaders.metallib",
	}

	p := NewPayload(report)

	require.Equal(t, "shaders.metallib", p.Library)
	require.Equal(t, []string{"a.spv", "a.dxbc", "a.glsl", "a.metal", "a.air", "shaders.metallib"}, p.Artifacts)
	require.Equal(t, []string{"a.air"}, p.Objects)

	empty := NewPayload(&pipeline.Report{})
	require.NotNil(t, empty.Artifacts)
	require.NotNil(t, empty.Objects)
	require.Equal(t, map[string]any{
		"library":   "",
		"artifacts": []string{},
		"objects":   []string{},
	}, empty.toMap())
}

func TestNotify_InvalidURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		url  string
	}{
		{name: "Unparseable", url: "http://[::1"},
		{name: "No scheme", url: "localhost:3000"},
		{name: "No host", url: "http:///socket.io/"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := testutil.Context(t)

			err := New(Config{URL: tc.url}).Notify(ctx, Payload{})

			require.Error(t, err)
		})
	}
}

func TestNotify_UnreachableServerFailsFast(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	n := New(Config{URL: "http://127.0.0.1:1/socket.io/", Timeout: 5 * time.Second})

	// --- Act ---
	start := time.Now()
	err := n.Notify(ctx, Payload{})

	// --- Assert ---
	require.ErrorContains(t, err, "socket.io connection failed")
	require.NotContains(t, err.Error(), "timed out")
	require.Less(t, time.Since(start), 4*time.Second, "a refused connection must not wait for the timeout")
}

func TestNotify_DeliversPayload(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		ackEvent string
	}{
		{name: "Without acknowledgement"},
		{name: "With acknowledgement", ackEvent: "shaders_reloaded"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			url, received := newBuildServer(t, DefaultEvent, tc.ackEvent)
			n := New(Config{URL: url, AckEvent: tc.ackEvent, Timeout: 5 * time.Second})
			payload := Payload{Library: "msl/shaders.metallib", Artifacts: []string{"a.spv"}, Objects: []string{}}

			// --- Act ---
			err := n.Notify(ctx, payload)

			// --- Assert ---
			require.NoError(t, err)
			select {
			case got := <-received:
				require.Equal(t, map[string]any{
					"library":   "msl/shaders.metallib",
					"artifacts": []any{"a.spv"},
					"objects":   []any{},
				}, got)
			case <-time.After(2 * time.Second):
				t.Fatal("server did not receive the build event")
			}
		})
	}
}

func TestNotify_ReservedEventFails(t *testing.T) {
	t.Parallel()

	ctx, _ := testutil.Context(t)
	url, _ := newBuildServer(t, "connect", "")
	n := New(Config{URL: url, Event: "connect", Timeout: 5 * time.Second})

	err := n.Notify(ctx, Payload{})

	require.ErrorContains(t, err, `failed to emit "connect"`)
	require.ErrorContains(t, err, "reserved event name")
}
