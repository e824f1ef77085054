package env

import (
	"strings"
	"testing"
)

func testEnvironment() *Environment {
	return New([]ServiceDefinition{
		{
			Name: "myEndpoint", Kind: KindEndpoint, Role: RoleSource,
			Metadata: map[string]string{
				MetaServicePath: "/a/path",
				MetaEventType:   "org.apache.camel.event",
			},
		},
		{
			Name: "myTarget", Kind: KindEndpoint, Role: RoleSink,
			Host: "example.org", Port: 8080,
			Metadata: map[string]string{
				MetaServicePath: "/b",
				"ce.override.ce-type": "A",
			},
		},
		{
			Name: "unreachable", Kind: KindEndpoint, Role: RoleSink,
		},
	})
}

func TestFindSourceAndSink(t *testing.T) {
	e := testEnvironment()

	s := e.FindSource(KindEndpoint, "myEndpoint")
	if s == nil || s.Path() != "/a/path" {
		t.Fatalf("FindSource: got %+v", s)
	}

	sink := e.FindSink(KindEndpoint, "myTarget")
	if sink == nil || sink.Host != "example.org" {
		t.Fatalf("FindSink: got %+v", sink)
	}
}

func TestRequireSinkFailsOnMissingHost(t *testing.T) {
	e := testEnvironment()
	_, err := e.RequireSink(KindEndpoint, "unreachable")
	if err == nil {
		t.Fatal("expected error for sink with no host")
	}
	if !strings.Contains(err.Error(), "host is not defined") {
		t.Errorf("error = %v", err)
	}
}

func TestOverrideMetadata(t *testing.T) {
	e := testEnvironment()
	sink := e.FindSink(KindEndpoint, "myTarget")
	overrides := sink.OverrideMetadata()
	if overrides["ce-type"] != "A" {
		t.Errorf("overrides = %v", overrides)
	}
}

func TestParseURIWildcardAndStrict(t *testing.T) {
	u, err := ParseURI("knative:endpoint/myEndpoint")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if u.Kind != KindEndpoint || u.Name != "myEndpoint" {
		t.Fatalf("got %+v", u)
	}

	// Unspecified kind/apiVersion: wildcard, matches regardless of metadata.
	s := &ServiceDefinition{Metadata: map[string]string{MetaKind: "Foo", MetaAPIVersion: "v1"}}
	if !u.Matches(s) {
		t.Error("unspecified query should match any service metadata")
	}

	strict, err := ParseURI("knative:endpoint/myEndpoint?kind=Foo&apiVersion=v2")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if strict.Matches(s) {
		t.Error("mismatched apiVersion should not match")
	}
	s.Metadata[MetaAPIVersion] = "v2"
	if !strict.Matches(s) {
		t.Error("matching kind/apiVersion should match")
	}
}

func TestParseURIOverridesAndReply(t *testing.T) {
	u, err := ParseURI("knative:endpoint/target?replyWithCloudEvent=true&ce.override.ce-type=C")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if !u.ReplyWithCloudEvent {
		t.Error("expected ReplyWithCloudEvent = true")
	}
	if u.Overrides["ce-type"] != "C" {
		t.Errorf("overrides = %v", u.Overrides)
	}
}

func TestResolveEventKindSugar(t *testing.T) {
	e := New([]ServiceDefinition{
		{Name: "evtSrc", Kind: KindEvent, Role: RoleSource, Metadata: map[string]string{MetaEventType: "org.example.thing"}},
	})
	u, err := ParseURI("knative:event/org.example.thing")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	matches := e.Resolve(u)
	if len(matches) != 1 || matches[0].Name != "evtSrc" {
		t.Fatalf("Resolve: got %+v", matches)
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
services:
  - name: myEndpoint
    kind: endpoint
    role: source
    metadata:
      service.path: /a/path
      knative.event.type: org.apache.camel.event
  - name: myTarget
    kind: endpoint
    role: sink
    host: example.org
    port: 8080
`
	e, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(e.All()) != 2 {
		t.Fatalf("expected 2 services, got %d", len(e.All()))
	}
	sink := e.FindSink(KindEndpoint, "myTarget")
	if sink == nil || sink.Port != 8080 {
		t.Fatalf("sink = %+v", sink)
	}
}

func TestLoadYAMLUnknownKind(t *testing.T) {
	doc := `
services:
  - name: bad
    kind: bogus
    role: source
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
