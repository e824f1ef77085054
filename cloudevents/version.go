// Package cloudevents implements the CloudEvents attribute mapping layer:
// per-version tables translating between the wire (HTTP) representation of
// a CloudEvent and the internal (routing-message) header namespace used by
// the rest of the transport core.
//
// Version branching is a lookup table keyed by spec version, not
// inheritance over a CloudEvent object model: each version is a record of
// field names, not a subclass.
package cloudevents

import "fmt"

// Version is a supported CloudEvents specification version.
type Version string

const (
	V01 Version = "0.1"
	V02 Version = "0.2"
	V03 Version = "0.3"
)

// Attribute is one of the abstract CloudEvent attribute names this mapper
// understands, independent of spec version.
type Attribute string

const (
	AttrVersion         Attribute = "version"
	AttrType            Attribute = "type"
	AttrID              Attribute = "id"
	AttrSource          Attribute = "source"
	AttrTime            Attribute = "time"
	AttrDataContentType Attribute = "datacontenttype"
	AttrSubject         Attribute = "subject"
)

// attrNames lists the table-driven attribute order used when iterating,
// so decode/encode output is deterministic.
var attrNames = []Attribute{
	AttrVersion, AttrType, AttrID, AttrSource, AttrTime, AttrDataContentType, AttrSubject,
}

// names holds, per attribute, the wire HTTP header name and the internal
// routing-message header name ("id name" in spec terms).
type names struct {
	http string
	id   string
}

// httpContentType is the header carrying the payload's media type; it is
// addressed separately from the CloudEvent attribute table because it is
// shared verbatim across all three versions.
const httpContentType = "Content-Type"

// table is the per-version attribute name table. Populated in tables.go.
var table = map[Version]map[Attribute]names{}

// structuredKeys is the per-version JSON field-name table for structured
// content mode. Populated in tables.go.
var structuredKeys = map[Version]map[Attribute]string{}

func lookupTable(v Version) (map[Attribute]names, error) {
	t, ok := table[v]
	if !ok {
		return nil, fmt.Errorf("cloudevents: unsupported spec version %q", v)
	}
	return t, nil
}

func lookupStructuredKeys(v Version) (map[Attribute]string, error) {
	t, ok := structuredKeys[v]
	if !ok {
		return nil, fmt.Errorf("cloudevents: unsupported spec version %q", v)
	}
	return t, nil
}

// Attributes returns the abstract attribute names this mapper understands,
// in a stable order.
func Attributes() []Attribute {
	out := make([]Attribute, len(attrNames))
	copy(out, attrNames)
	return out
}

// WireName returns the canonical HTTP header name for attribute a under
// m's version.
func (m *Mapper) WireName(a Attribute) (string, error) {
	tbl, err := lookupTable(m.Version)
	if err != nil {
		return "", err
	}
	return tbl[a].http, nil
}

// InternalName returns the stable, version-independent routing-message
// header name for attribute a.
func (m *Mapper) InternalName(a Attribute) (string, error) {
	tbl, err := lookupTable(m.Version)
	if err != nil {
		return "", err
	}
	return tbl[a].id, nil
}
