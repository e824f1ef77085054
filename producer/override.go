package producer

import (
	"strings"
	"time"

	"github.com/fxsml/knative-http-core/cloudevents"
	"github.com/fxsml/knative-http-core/message"
)

// buildHeaders synthesises the outbound CloudEvent HTTP headers for msg,
// applying the override precedence from §4.5(b): environment layer,
// component configuration layer, and endpoint URI layer apply in that
// order (each overwriting the previous); the message's own internal
// CamelCloudEvent* headers then take precedence over all three for their
// corresponding wire header; an explicit wire-form header set on the
// message overrides everything else for that header.
func buildHeaders(mapper *cloudevents.Mapper, msg *message.Message, defaults cloudevents.Defaults, sinkOverrides, componentOverrides, uriOverrides map[string]string) (map[string]string, error) {
	out := map[string]string{}
	known := map[string]bool{}

	specWire, err := mapper.WireName(cloudevents.AttrVersion)
	if err != nil {
		return nil, err
	}
	out[specWire] = string(mapper.Version)
	known[specWire] = true

	for _, a := range cloudevents.Attributes() {
		if a == cloudevents.AttrVersion || a == cloudevents.AttrDataContentType {
			continue
		}
		wire, err := mapper.WireName(a)
		if err != nil {
			return nil, err
		}
		internal, err := mapper.InternalName(a)
		if err != nil {
			return nil, err
		}
		known[wire] = true

		value := defaultValue(a, defaults)
		for _, layer := range []map[string]string{sinkOverrides, componentOverrides, uriOverrides} {
			if v, ok := layer[wire]; ok {
				value = v
			}
		}
		if v, ok := msg.Headers.Get(internal); ok && v != "" {
			value = v
		}
		if v, ok := msg.Headers.Get(wire); ok && v != "" {
			value = v
		}
		if value != "" {
			out[wire] = value
		}
	}

	// Custom (non-standard-attribute) ce.override.<header> keys apply
	// generically, lowest (environment) to highest (URI) of the three
	// override layers.
	for _, layer := range []map[string]string{sinkOverrides, componentOverrides, uriOverrides} {
		for k, v := range layer {
			if !known[k] {
				out[k] = v
			}
		}
	}

	// Any other wire-form header set explicitly on the message overrides
	// everything else for that header.
	for k, v := range msg.Headers {
		if k == "Content-Type" || strings.HasPrefix(k, "CamelCloudEvent") || known[k] {
			continue
		}
		out[k] = v
	}

	return out, nil
}

func defaultValue(a cloudevents.Attribute, d cloudevents.Defaults) string {
	switch a {
	case cloudevents.AttrType:
		return d.Type
	case cloudevents.AttrID:
		if d.ID != nil {
			return d.ID()
		}
	case cloudevents.AttrSource:
		return d.Source
	case cloudevents.AttrTime:
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		return now().Format(time.RFC3339Nano)
	}
	return ""
}

// resolveContentType implements override layer (f): the message's own
// Content-Type wins; else the sink's declared content.type; else unset.
func resolveContentType(defaultContentType string, msg *message.Message) string {
	if msg.Headers != nil {
		if v, ok := msg.Headers.Get("Content-Type"); ok && v != "" {
			return v
		}
	}
	return defaultContentType
}
