package cloudevents

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fxsml/knative-http-core/message"
	"github.com/fxsml/knative-http-core/transporterr"
)

// ContentTypeStructured is the media type that selects structured content
// mode: the entire CloudEvent, attributes and data, as a single JSON body.
const ContentTypeStructured = "application/cloudevents+json"

// Defaults supplies the values the mapper synthesises for attributes
// missing from an outbound message. Source and Type are resolved once per
// target (they are derived from the ServiceDefinition being addressed);
// ID and Now are functions so every encode call gets a fresh value.
type Defaults struct {
	ID     func() string
	Now    func() time.Time
	Source string
	Type   string
}

// NewDefaults builds a Defaults whose ID is a fresh UUID and whose Now is
// the wall clock, for the given endpoint kind/name/type.
func NewDefaults(kind, name, eventType string) Defaults {
	return Defaults{
		ID:     func() string { return uuid.NewString() },
		Now:    time.Now,
		Source: fmt.Sprintf("knative://%s/%s", kind, name),
		Type:   eventType,
	}
}

// Mapper translates CloudEvent attributes between the wire representation
// for a single spec version and the transport core's internal header
// namespace. Decode and Encode are pure functions of their arguments: all
// version-dependent behaviour comes from the package-level tables.
type Mapper struct {
	Version Version
}

// NewMapper returns a Mapper bound to version v.
func NewMapper(v Version) *Mapper {
	return &Mapper{Version: v}
}

// Decode parses an inbound HTTP request's CloudEvent attributes and
// payload. If contentType is the structured CloudEvents media type, the
// JSON body is parsed and its recognised fields lifted into internal
// header names; otherwise (binary mode) each recognised HTTP header is
// copied to both its wire-form and internal-form header name, and body is
// returned as the payload unchanged.
func (m *Mapper) Decode(h http.Header, body []byte, contentType string) (message.Headers, []byte, error) {
	tbl, err := lookupTable(m.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", transporterr.ErrConfig, err)
	}

	if isStructured(contentType) {
		return m.decodeStructured(tbl, body)
	}
	return m.decodeBinary(h, tbl, body)
}

func isStructured(contentType string) bool {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(ct) == ContentTypeStructured
}

func (m *Mapper) decodeBinary(h http.Header, tbl map[Attribute]names, body []byte) (message.Headers, []byte, error) {
	headers := message.Headers{}
	for _, a := range attrNames {
		n := tbl[a]
		v := h.Get(n.http)
		if v == "" {
			continue
		}
		headers.Set(n.http, v)
		headers.Set(n.id, v)
	}
	return headers, body, nil
}

func (m *Mapper) decodeStructured(tbl map[Attribute]names, body []byte) (message.Headers, []byte, error) {
	keys, err := lookupStructuredKeys(m.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", transporterr.ErrConfig, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", transporterr.ErrDecode, err)
	}

	headers := message.Headers{}
	for _, a := range attrNames {
		key := keys[a]
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, nil, fmt.Errorf("%w: attribute %q is not a string: %v", transporterr.ErrDecode, key, err)
		}
		n := tbl[a]
		headers.Set(n.http, s)
		headers.Set(n.id, s)
	}

	var payload []byte
	if raw, ok := doc["data"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			payload = []byte(s)
		} else {
			payload = []byte(raw)
		}
	}

	return headers, payload, nil
}

// Encode produces the binary-mode HTTP headers and content type for an
// outbound CloudEvent carried in internal (and/or wire-form) headers,
// synthesising id, time, source, and type where missing using defaults.
func (m *Mapper) Encode(h message.Headers, defaults Defaults) (http.Header, string, error) {
	tbl, err := lookupTable(m.Version)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", transporterr.ErrConfig, err)
	}

	out := http.Header{}
	out.Set(tbl[AttrVersion].http, string(m.Version))

	set := func(a Attribute, fallback func() string) {
		n := tbl[a]
		if v, ok := h.Get(n.id); ok && v != "" {
			out.Set(n.http, v)
			return
		}
		if v, ok := h.Get(n.http); ok && v != "" {
			out.Set(n.http, v)
			return
		}
		if fallback != nil {
			if v := fallback(); v != "" {
				out.Set(n.http, v)
			}
		}
	}

	set(AttrType, func() string { return defaults.Type })
	set(AttrID, func() string {
		if defaults.ID != nil {
			return defaults.ID()
		}
		return ""
	})
	set(AttrSource, func() string { return defaults.Source })
	set(AttrTime, func() string {
		now := time.Now
		if defaults.Now != nil {
			now = defaults.Now
		}
		return now().Format(time.RFC3339Nano)
	})

	contentType := ""
	n := tbl[AttrDataContentType]
	if v, ok := h.Get(n.id); ok && v != "" {
		contentType = v
	} else if v, ok := h.Get(n.http); ok && v != "" {
		contentType = v
	}
	if contentType != "" {
		out.Set(httpContentType, contentType)
	}

	if v, ok := h.Get(idSubject); ok && v != "" {
		out.Set(tbl[AttrSubject].http, v)
	}

	return out, contentType, nil
}
