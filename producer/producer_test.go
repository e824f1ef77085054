package producer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/fxsml/knative-http-core/cloudevents"
	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/message"
	"github.com/fxsml/knative-http-core/transporterr"
)

func TestMissingHostFailsBeforeAnyHTTP(t *testing.T) {
	p := New(Config{Version: cloudevents.V03})
	sink := &env.ServiceDefinition{Name: "unreachable"}
	_, err := p.Send(context.Background(), sink, nil, message.New([]byte("x"), nil))
	if err == nil || !errors.Is(err, transporterr.ErrHTTPOperationFailed) {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "transporterr: HTTP operation failed: host is not defined") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestNilBodyIsIllegalArgument(t *testing.T) {
	p := New(Config{Version: cloudevents.V03})
	sink := &env.ServiceDefinition{Name: "s", Host: "example.org"}
	_, err := p.Send(context.Background(), sink, nil, &message.Message{})
	if !errors.Is(err, transporterr.ErrIllegalArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestOverridePrecedence(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("ce-type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	sink := &env.ServiceDefinition{
		Name: "target", Host: host, Port: port,
		Metadata: map[string]string{"ce.override.ce-type": "A"},
	}
	p := New(Config{Version: cloudevents.V03})
	p.SetComponentOverrides(map[string]string{"ce-type": "B"})

	uri, err := env.ParseURI("knative:endpoint/target?ce.override.ce-type=C")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}

	msg := message.New([]byte("x"), message.Headers{"CamelCloudEventType": "D"})
	_, err = p.Send(context.Background(), sink, uri, msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotType != "D" {
		t.Errorf("ce-type = %q, want D", gotType)
	}
}

func TestSuccessClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("reply-body"))
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	sink := &env.ServiceDefinition{Name: "target", Host: host, Port: port}
	p := New(Config{Version: cloudevents.V03})

	reply, err := p.Send(context.Background(), sink, nil, message.New([]byte("x"), nil))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(reply.Body) != "reply-body" {
		t.Errorf("reply body = %q", reply.Body)
	}
	if v, _ := reply.Headers.Get(HeaderResponseCode); v != "200" {
		t.Errorf("HeaderResponseCode = %q", v)
	}
}

func TestFailureClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.URL)
	sink := &env.ServiceDefinition{Name: "target", Host: host, Port: port}
	p := New(Config{Version: cloudevents.V03})

	_, err := p.Send(context.Background(), sink, nil, message.New([]byte("x"), nil))
	if !errors.Is(err, transporterr.ErrHTTPOperationFailed) {
		t.Fatalf("err = %v", err)
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u := strings.TrimPrefix(rawURL, "http://")
	host, portStr, ok := strings.Cut(u, ":")
	if !ok {
		t.Fatalf("could not split host:port from %q", rawURL)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("could not parse port from %q: %v", rawURL, err)
	}
	return host, port
}
