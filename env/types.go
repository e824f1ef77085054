// Package env implements the immutable catalogue of named service
// definitions (the "environment") that the dispatcher and producer
// address by kind and name.
package env

// Kind is the discovery convention a ServiceDefinition uses. channel is
// wire-identical to endpoint; event is sugar over endpoint where the
// knative.event.type metadata selects sources in Environment.Resolve and
// is the synthesised CE type. The registry does not turn it into a
// filter: only filter.<header> metadata constrains inbound matching.
type Kind string

const (
	KindEndpoint Kind = "endpoint"
	KindChannel  Kind = "channel"
	KindEvent    Kind = "event"
)

// Role is whether a ServiceDefinition receives (source) or is invoked
// (sink).
type Role string

const (
	RoleSource Role = "source"
	RoleSink   Role = "sink"
)

// Recognised metadata keys. filter.<header> and ce.override.<header> are
// key prefixes rather than fixed keys; see FilterMetadata and
// OverrideMetadata in metadata.go.
const (
	MetaServicePath     = "service.path"
	MetaContentType     = "content.type"
	MetaEventType       = "knative.event.type"
	MetaKind            = "knative.kind"
	MetaAPIVersion      = "knative.apiVersion"
	FilterPrefix        = "filter."
	CEOverridePrefix    = "ce.override."
)

// UnsetPort is the sentinel for "no port configured".
const UnsetPort = -1

// ServiceDefinition is an immutable record describing one named service in
// the environment: an inbound consumer to attach (role=source) or an
// outbound target to invoke (role=sink).
type ServiceDefinition struct {
	Name     string
	Kind     Kind
	Role     Role
	Host     string
	Port     int
	Metadata map[string]string
}

// Path returns the service's configured path, defaulting to "/".
func (s *ServiceDefinition) Path() string {
	if p, ok := s.Metadata[MetaServicePath]; ok && p != "" {
		return p
	}
	return "/"
}

// ContentType returns the service's default content type, or "" if unset.
func (s *ServiceDefinition) ContentType() string {
	return s.Metadata[MetaContentType]
}

// EventType returns the knative.event.type metadata value, or "" if unset.
func (s *ServiceDefinition) EventType() string {
	return s.Metadata[MetaEventType]
}

// Environment is an ordered, immutable sequence of ServiceDefinitions.
// Constructed once from configuration; lookups are by (kind, name) with
// ambiguity resolved by first match in declaration order.
type Environment struct {
	services []ServiceDefinition
}

// New builds an Environment from a declaration-ordered slice of
// ServiceDefinitions. The slice is copied; the caller's slice may be
// reused afterward.
func New(services []ServiceDefinition) *Environment {
	e := &Environment{services: make([]ServiceDefinition, len(services))}
	copy(e.services, services)
	return e
}

// All returns every ServiceDefinition in declaration order. The returned
// slice must not be mutated by the caller.
func (e *Environment) All() []ServiceDefinition {
	return e.services
}
