package registry

import (
	"context"
	"net/http"
	"testing"

	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/message"
)

func noopReceiver(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return nil, nil
}

func TestLookupByPath(t *testing.T) {
	r := New()
	svc := &env.ServiceDefinition{Name: "s1", Metadata: map[string]string{env.MetaServicePath: "/a/path"}}
	r.Attach(svc, "", false, noopReceiver)

	h := http.Header{}
	c, ok := r.Lookup("/a/path", h)
	if !ok || c.Service.Name != "s1" {
		t.Fatalf("Lookup = %+v, %v", c, ok)
	}

	if _, ok := r.Lookup("/other", h); ok {
		t.Fatal("expected no match for unknown path")
	}
}

func TestFilterRegexSelection(t *testing.T) {
	r := New()
	svc1 := &env.ServiceDefinition{Name: "s1", Metadata: map[string]string{
		"filter.ce-source": "CE[01234]",
	}}
	svc2 := &env.ServiceDefinition{Name: "s2", Metadata: map[string]string{
		"filter.ce-source": "CE[56789]",
	}}
	r.Attach(svc1, "", false, noopReceiver)
	r.Attach(svc2, "", false, noopReceiver)

	for _, tc := range []struct {
		source string
		want   string
		found  bool
	}{
		{"CE0", "s1", true},
		{"CE5", "s2", true},
		{"CE9", "s2", true},
		{"XX", "", false},
	} {
		h := http.Header{}
		h.Set("ce-source", tc.source)
		c, ok := r.Lookup("/", h)
		if ok != tc.found {
			t.Errorf("source=%s: found=%v, want %v", tc.source, ok, tc.found)
			continue
		}
		if ok && c.Service.Name != tc.want {
			t.Errorf("source=%s: matched %s, want %s", tc.source, c.Service.Name, tc.want)
		}
	}
}

func TestDynamicDetach(t *testing.T) {
	r := New()
	svc1 := &env.ServiceDefinition{Name: "c1", Metadata: map[string]string{"filter.x-id": "1"}}
	svc2 := &env.ServiceDefinition{Name: "c2", Metadata: map[string]string{"filter.x-id": "2"}}
	r.Attach(svc1, "", false, noopReceiver)
	h2 := r.Attach(svc2, "", false, noopReceiver)

	hdr1 := http.Header{"X-Id": []string{"1"}}
	hdr2 := http.Header{"X-Id": []string{"2"}}

	if _, ok := r.Lookup("/", hdr2); !ok {
		t.Fatal("expected consumer 2 to match before detach")
	}

	r.Detach(h2)

	if _, ok := r.Lookup("/", hdr2); ok {
		t.Fatal("expected 404 after detaching consumer 2")
	}
	if _, ok := r.Lookup("/", hdr1); !ok {
		t.Fatal("consumer 1 should still match after detaching consumer 2")
	}
}

func TestSelectionDeterminismLargerFilterSetWins(t *testing.T) {
	r := New()
	broad := &env.ServiceDefinition{Name: "broad", Metadata: map[string]string{"filter.a": "x"}}
	narrow := &env.ServiceDefinition{Name: "narrow", Metadata: map[string]string{"filter.a": "x", "filter.b": "y"}}
	r.Attach(broad, "", false, noopReceiver)
	r.Attach(narrow, "", false, noopReceiver)

	h := http.Header{"A": []string{"x"}, "B": []string{"y"}}
	c, ok := r.Lookup("/", h)
	if !ok || c.Service.Name != "narrow" {
		t.Fatalf("expected larger filter set (narrow) to win, got %+v", c)
	}
}
