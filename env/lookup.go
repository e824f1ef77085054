package env

import (
	"fmt"
	"strconv"

	"github.com/fxsml/knative-http-core/transporterr"
)

// FindSource returns the first source ServiceDefinition matching kind and
// name, or nil if none is declared.
func (e *Environment) FindSource(kind Kind, name string) *ServiceDefinition {
	for i := range e.services {
		s := &e.services[i]
		if s.Role == RoleSource && s.Kind == kind && s.Name == name {
			return s
		}
	}
	return nil
}

// FindSink returns the first sink ServiceDefinition matching kind and
// name. The returned definition's Host is not validated here; callers
// that invoke it must check Host themselves and fail at invocation time,
// not at lookup time.
func (e *Environment) FindSink(kind Kind, name string) *ServiceDefinition {
	for i := range e.services {
		s := &e.services[i]
		if s.Role == RoleSink && s.Kind == kind && s.Name == name {
			return s
		}
	}
	return nil
}

// RequireSink resolves a sink and validates it is ready for an outbound
// call: declared, and carrying a non-empty Host.
func (e *Environment) RequireSink(kind Kind, name string) (*ServiceDefinition, error) {
	s := e.FindSink(kind, name)
	if s == nil {
		return nil, fmt.Errorf("%w: no sink %s/%s defined", transporterr.ErrConfig, kind, name)
	}
	if s.Host == "" {
		return nil, fmt.Errorf("%w: host is not defined", transporterr.ErrConfig)
	}
	return s, nil
}

// FindSourcesByKind returns every source ServiceDefinition of the given
// kind, in declaration order. Used at consumer-attach time.
func (e *Environment) FindSourcesByKind(kind Kind) []*ServiceDefinition {
	var out []*ServiceDefinition
	for i := range e.services {
		s := &e.services[i]
		if s.Role == RoleSource && s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// FindEventSources returns every source ServiceDefinition of kind=event
// whose knative.event.type metadata equals eventType. This realises the
// "kind=event" sugar: an endpoint URI knative:event/<type> selects every
// matching source.
func (e *Environment) FindEventSources(eventType string) []*ServiceDefinition {
	var out []*ServiceDefinition
	for i := range e.services {
		s := &e.services[i]
		if s.Role == RoleSource && s.Kind == KindEvent && s.EventType() == eventType {
			out = append(out, s)
		}
	}
	return out
}

// Address formats a sink's network address as scheme://host:port, using
// "http" unless tls requests "https". Port is omitted when unset.
func (s *ServiceDefinition) Address(tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	if s.Port == UnsetPort || s.Port == 0 {
		return scheme + "://" + s.Host
	}
	return scheme + "://" + s.Host + ":" + strconv.Itoa(s.Port)
}
