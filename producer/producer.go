// Package producer implements the outbound side of the transport: for a
// target service definition it synthesises CloudEvent headers, applies
// the override precedence chain, performs the HTTP request, and
// propagates the result or a classified error back to the caller.
package producer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/fxsml/knative-http-core/cloudevents"
	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/message"
	"github.com/fxsml/knative-http-core/transporterr"
)

// HeaderResponseCode is the internal header the producer sets on a
// successful reply message, carrying the HTTP status code observed.
const HeaderResponseCode = "HTTP_RESPONSE_CODE"

// Config configures a Producer.
type Config struct {
	// Version is the CloudEvents spec version outbound requests encode.
	Version cloudevents.Version

	// TLS selects https as the outbound scheme.
	TLS bool

	// ComponentOverrides is the process-wide ce-override map (layer (b)
	// of §4.5). Read on every call; replace it wholesale via
	// SetComponentOverrides for last-writer-wins semantics.
	ComponentOverrides map[string]string

	// Client performs the outbound HTTP request. Defaults to a client
	// that does not follow redirects, so a 3xx response is classified
	// as a failure rather than silently followed.
	Client *http.Client

	// Logger receives structured dispatch logs. Defaults to a
	// slog-backed Logger if nil.
	Logger message.Logger

	// Metrics, if non-nil, receives request/duration observations.
	Metrics *Metrics
}

func (c Config) parse() Config {
	if c.Client == nil {
		c.Client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if c.Logger == nil {
		c.Logger = message.NewSlogLogger(nil)
	}
	return c
}

// Producer performs outbound CloudEvent HTTP delivery for sink
// ServiceDefinitions.
type Producer struct {
	cfg       Config
	overrides atomic.Pointer[map[string]string]
}

// New builds a Producer.
func New(cfg Config) *Producer {
	cfg = cfg.parse()
	p := &Producer{cfg: cfg}
	overrides := cfg.ComponentOverrides
	if overrides == nil {
		overrides = map[string]string{}
	}
	p.overrides.Store(&overrides)
	return p
}

// SetComponentOverrides atomically replaces the process-wide ce-override
// map read by every subsequent Send call.
func (p *Producer) SetComponentOverrides(overrides map[string]string) {
	cp := make(map[string]string, len(overrides))
	for k, v := range overrides {
		cp[k] = v
	}
	p.overrides.Store(&cp)
}

// Send performs a single outbound delivery to sink, applying uri's
// endpoint-level overrides if uri is non-nil. On a 2xx/204 response, the
// returned message's body is the response body (nil for 204) and its
// headers carry HeaderResponseCode. On any other outcome, err wraps one
// of the transporterr sentinel kinds.
func (p *Producer) Send(ctx context.Context, sink *env.ServiceDefinition, uri *env.URI, msg *message.Message) (*message.Message, error) {
	if msg == nil || msg.Body == nil {
		return nil, fmt.Errorf("%w: body must not be null", transporterr.ErrIllegalArgument)
	}
	if sink.Host == "" {
		return nil, fmt.Errorf("%w: host is not defined", transporterr.ErrHTTPOperationFailed)
	}

	mapper := cloudevents.NewMapper(p.cfg.Version)
	defaults := cloudevents.NewDefaults(string(sink.Kind), sink.Name, sink.EventType())

	var uriOverrides map[string]string
	if uri != nil {
		uriOverrides = uri.Overrides
	}

	headers, err := buildHeaders(mapper, msg, defaults, sink.OverrideMetadata(), *p.overrides.Load(), uriOverrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transporterr.ErrConfig, err)
	}
	contentType := resolveContentType(sink.ContentType(), msg)

	url := sink.Address(p.cfg.TLS) + sink.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(msg.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transporterr.ErrConfig, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := p.beginTimer()
	resp, err := p.cfg.Client.Do(req)
	p.observe(start, err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w: %v", transporterr.ErrHTTPOperationFailed, transporterr.ErrCancelled, err)
		}
		p.cfg.Logger.Error("outbound request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", transporterr.ErrHTTPOperationFailed, err)
	}
	defer resp.Body.Close()

	return p.classify(url, resp)
}

func (p *Producer) classify(url string, resp *http.Response) (*message.Message, error) {
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return message.New(nil, message.Headers{HeaderResponseCode: "204"}), nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading response body: %v", transporterr.ErrHTTPOperationFailed, err)
		}
		headers := message.Headers{HeaderResponseCode: fmt.Sprintf("%d", resp.StatusCode)}
		return message.New(body, headers), nil
	default:
		p.cfg.Logger.Error("outbound request rejected", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: url=%s status=%d message=%s", transporterr.ErrHTTPOperationFailed, url, resp.StatusCode, resp.Status)
	}
}
