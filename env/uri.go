package env

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fxsml/knative-http-core/transporterr"
)

// URI is a parsed endpoint-URI of the grammar:
//
//	knative:<kind>/<name>[?<key>=<value>(&<key>=<value>)*]
//
// consumed by the routing engine to name a service to attach or invoke.
// Recognised query keys are kind, apiVersion, replyWithCloudEvent, and
// any ce.override.<http-header> key.
type URI struct {
	Kind Kind
	Name string

	// QueryKind and QueryAPIVersion, when present, constrain matching
	// against a ServiceDefinition's knative.kind / knative.apiVersion
	// metadata. An empty value means "unspecified" and matches any
	// ServiceDefinition regardless of its own metadata (wildcard); a
	// non-empty value requires strict equality. See the Open Question
	// resolution in the design notes.
	QueryKind       string
	QueryAPIVersion string

	ReplyWithCloudEvent bool
	Overrides           map[string]string
}

// ParseURI parses raw per the endpoint URI grammar.
func ParseURI(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint URI %q: %v", transporterr.ErrConfig, raw, err)
	}
	if u.Scheme != "knative" {
		return nil, fmt.Errorf("%w: endpoint URI %q must use the knative: scheme", transporterr.ErrConfig, raw)
	}

	opaque := u.Opaque
	if opaque == "" {
		// Some parses of "knative:kind/name" land the path in u.Path
		// rather than u.Opaque depending on surrounding slashes; accept
		// either form.
		opaque = strings.TrimPrefix(u.Path, "/")
	}
	kind, name, ok := strings.Cut(opaque, "/")
	if !ok || kind == "" || name == "" {
		return nil, fmt.Errorf("%w: endpoint URI %q must be of the form knative:<kind>/<name>", transporterr.ErrConfig, raw)
	}

	q := u.Query()
	out := &URI{
		Kind:            Kind(kind),
		Name:            name,
		QueryKind:       q.Get("kind"),
		QueryAPIVersion: q.Get("apiVersion"),
		Overrides:       map[string]string{},
	}

	if v := q.Get("replyWithCloudEvent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: replyWithCloudEvent must be a boolean, got %q", transporterr.ErrConfig, v)
		}
		out.ReplyWithCloudEvent = b
	}

	for key, vals := range q {
		if header, ok := strings.CutPrefix(key, CEOverridePrefix); ok && len(vals) > 0 {
			out.Overrides[header] = vals[0]
		}
	}

	return out, nil
}

// Matches reports whether s satisfies u's kind/apiVersion constraints.
// An unspecified query value is a wildcard; a specified one requires
// strict equality against the service's matching metadata key.
func (u *URI) Matches(s *ServiceDefinition) bool {
	if u.QueryKind != "" && s.Metadata[MetaKind] != u.QueryKind {
		return false
	}
	if u.QueryAPIVersion != "" && s.Metadata[MetaAPIVersion] != u.QueryAPIVersion {
		return false
	}
	return true
}

// Resolve selects the ServiceDefinition(s) named by u within e. For
// kind=event it applies the event-type equivalence from §4.2/§4.6: if the
// environment declares event-kind sources whose knative.event.type
// matches u.Name, those are returned; otherwise the generic endpoint named
// by u.Name is used with u.Name as an event-type override (a copy of it
// whose knative.event.type metadata is u.Name is returned). For all other
// kinds it is a direct (kind, name) lookup filtered by Matches.
func (e *Environment) Resolve(u *URI) []*ServiceDefinition {
	if u.Kind == KindEvent {
		if sources := e.FindEventSources(u.Name); len(sources) > 0 {
			return filterMatching(sources, u)
		}
		if s := e.FindSource(KindEndpoint, u.Name); s != nil && u.Matches(s) {
			cp := *s
			cp.Metadata = make(map[string]string, len(s.Metadata)+1)
			for k, v := range s.Metadata {
				cp.Metadata[k] = v
			}
			cp.Metadata[MetaEventType] = u.Name
			return []*ServiceDefinition{&cp}
		}
		return nil
	}

	if s := e.FindSource(u.Kind, u.Name); s != nil && u.Matches(s) {
		return []*ServiceDefinition{s}
	}
	return nil
}

func filterMatching(services []*ServiceDefinition, u *URI) []*ServiceDefinition {
	out := services[:0:0]
	for _, s := range services {
		if u.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
