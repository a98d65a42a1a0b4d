// Package notify tells a running socket.io server, typically an engine's
// shader hot-reload endpoint, that a pipeline run finished.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/shadergrid/internal/ctxlog"
	"github.com/vk/shadergrid/internal/pipeline"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is emitted when no event name is configured.
const DefaultEvent = "shaders_built"

// DefaultTimeout bounds the whole connect-and-emit exchange.
const DefaultTimeout = 10 * time.Second

// flushDelay gives the transport time to write the event before the socket
// is closed when no acknowledgement event is awaited.
const flushDelay = 250 * time.Millisecond

// Config describes where and how to announce a finished build.
type Config struct {
	URL       string
	Namespace string
	Event     string
	// AckEvent, when set, is awaited from the server after emitting.
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Enabled reports whether a notification target is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Payload is the event body sent to the server.
type Payload struct {
	Library   string   `json:"library"`
	Artifacts []string `json:"artifacts"`
	Objects   []string `json:"objects"`
}

// NewPayload builds the event body from a pipeline report.
func NewPayload(r *pipeline.Report) Payload {
	p := Payload{
		Library:   r.Library,
		Artifacts: r.Artifacts(),
		Objects:   r.Objects,
	}
	if p.Artifacts == nil {
		p.Artifacts = []string{}
	}
	if p.Objects == nil {
		p.Objects = []string{}
	}
	return p
}

func (p Payload) toMap() map[string]any {
	return map[string]any{
		"library":   p.Library,
		"artifacts": p.Artifacts,
		"objects":   p.Objects,
	}
}

// Notifier emits build events over socket.io.
type Notifier struct {
	cfg Config
}

// New creates a Notifier, filling in the default event, timeout and
// namespace.
func New(cfg Config) *Notifier {
	if cfg.Event == "" {
		cfg.Event = DefaultEvent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	return &Notifier{cfg: cfg}
}

// opResult passes the outcome of the socket exchange out of the event handlers.
type opResult struct {
	err error
}

// Notify connects, emits the payload and disconnects.
func (n *Notifier) Notify(ctx context.Context, payload Payload) error {
	logger := ctxlog.FromContext(ctx).With("notify_url", n.cfg.URL, "event", n.cfg.Event)
	logger.Debug("Notifier started")
	defer logger.Debug("Notifier finished")

	parsedURL, err := url.Parse(n.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("notify URL %q must include a scheme and host", n.cfg.URL)
	}

	opCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if n.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	// One attempt only: a build must not hang on an absent server. Listeners
	// are attached before the connection is opened.
	opts.SetReconnection(false)
	opts.SetAutoConnect(false)
	opts.SetTimeout(n.cfg.Timeout)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(n.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	done := make(chan opResult, 1)
	finish := func(res opResult) {
		select {
		case done <- res:
		default:
		}
	}

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected", "sid", io.Id())
		if err := io.Emit(n.cfg.Event, payload.toMap()); err != nil {
			finish(opResult{err: fmt.Errorf("failed to emit %q: %w", n.cfg.Event, err)})
			return
		}
		logger.Info("Build notification sent", "artifacts", len(payload.Artifacts))
		if n.cfg.AckEvent == "" {
			go func() {
				time.Sleep(flushDelay)
				finish(opResult{})
			}()
		}
	})

	connectFailed := func(fallback string) func(...any) {
		return func(errs ...any) {
			err := errors.New(fallback)
			if len(errs) > 0 {
				if e, ok := errs[0].(error); ok {
					err = e
				}
			}
			finish(opResult{err: fmt.Errorf("socket.io connection failed: %w", err)})
		}
	}
	io.Once(types.EventName("connect_error"), connectFailed("connect_error"))
	manager.Once(types.EventName("error"), connectFailed("transport error"))
	manager.Once(types.EventName("reconnect_failed"), connectFailed("reconnect failed"))

	if n.cfg.AckEvent != "" {
		io.Once(types.EventName(n.cfg.AckEvent), func(...any) {
			logger.Debug("Acknowledgement received", "ack_event", n.cfg.AckEvent)
			finish(opResult{})
		})
	}

	io.Connect()

	select {
	case res := <-done:
		return res.err
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %s notifying %s", n.cfg.Timeout, n.cfg.URL)
	}
}
