// Package dispatcher implements the inbound side of the transport: a
// single HTTP handler that routes each request to zero or one registered
// consumer by path and header filter, decodes its CloudEvent, hands the
// decoded message to the consumer's receiver, and shapes the reply.
package dispatcher

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fxsml/knative-http-core/cloudevents"
	"github.com/fxsml/knative-http-core/message"
	"github.com/fxsml/knative-http-core/registry"
)

// Config configures a Dispatcher.
type Config struct {
	// Version is the CloudEvents spec version this dispatcher decodes and
	// encodes against.
	Version cloudevents.Version

	// BasePath, if non-empty, is trimmed from the front of each request
	// path before the registry lookup. It does not change consumers'
	// effective paths, which Registry.Attach computes from its own
	// basePath argument.
	BasePath string

	// Logger receives structured routing/decode/delivery logs. Defaults
	// to a slog-backed Logger if nil.
	Logger message.Logger

	// Metrics, if non-nil, receives request/decode/duration observations.
	// A Dispatcher with a nil Metrics simply skips instrumentation.
	Metrics *Metrics
}

func (c Config) parse() Config {
	if c.Logger == nil {
		c.Logger = message.NewSlogLogger(nil)
	}
	return c
}

// Dispatcher implements http.Handler per §4.4's routing algorithm. It
// composes with any net/http-compatible server; it does not own a
// listener itself.
type Dispatcher struct {
	registry *registry.Registry
	cfg      Config
}

// New builds a Dispatcher backed by reg.
func New(reg *registry.Registry, cfg Config) *Dispatcher {
	return &Dispatcher{registry: reg, cfg: cfg.parse()}
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusNotFound
	defer func() {
		d.observe(status, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, d.cfg.BasePath)
	consumer, ok := d.registry.Lookup(path, r.Header)
	if !ok {
		d.cfg.Logger.Debug("no matching consumer", "path", path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		d.cfg.Logger.Warn("failed to read request body", "error", err)
		status = http.StatusBadRequest
		w.WriteHeader(status)
		return
	}

	mapper := cloudevents.NewMapper(d.cfg.Version)
	headers, payload, err := mapper.Decode(r.Header, body, r.Header.Get("Content-Type"))
	if err != nil {
		d.cfg.Logger.Warn("decode failed", "error", err, "path", path)
		d.incDecodeError()
		status = http.StatusBadRequest
		w.WriteHeader(status)
		return
	}

	msg := message.New(payload, headers)
	reply, err := consumer.Receiver(r.Context(), msg)
	if err != nil {
		d.cfg.Logger.Error("receiver failed", "error", err, "path", path)
		status = http.StatusInternalServerError
		http.Error(w, err.Error(), status)
		return
	}

	status = d.writeReply(w, mapper, consumer, reply)
}

func (d *Dispatcher) writeReply(w http.ResponseWriter, mapper *cloudevents.Mapper, consumer *registry.Consumer, reply *message.Message) int {
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return http.StatusNoContent
	}

	contentType := ""
	if reply.Headers != nil {
		if ct, ok := reply.Headers.Get("Content-Type"); ok {
			contentType = ct
		}
	}

	if consumer.ReplyWithCloudEvent {
		defaults := cloudevents.NewDefaults(string(consumer.Service.Kind), consumer.Service.Name, consumer.Service.EventType())
		httpHeaders, encodedContentType, err := mapper.Encode(reply.Headers, defaults)
		if err != nil {
			d.cfg.Logger.Error("reply encode failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return http.StatusInternalServerError
		}
		for k, vals := range httpHeaders {
			w.Header()[k] = vals
		}
		if contentType == "" {
			contentType = encodedContentType
		}
	}

	if contentType == "" {
		contentType = consumer.Service.ContentType()
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(http.StatusOK)
	w.Write(reply.Body)
	return http.StatusOK
}

// Noop is a Receiver that produces no reply; useful for tests and for
// fire-and-forget sinks.
func Noop(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return nil, nil
}
