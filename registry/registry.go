package registry

import (
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fxsml/knative-http-core/env"
)

// Registry holds active consumer registrations, indexed by effective
// path. Lookup is lock-free: it reads an immutable snapshot that
// Attach/Detach replace atomically, so readers never block behind writers
// and never observe a half-attached consumer.
type Registry struct {
	writeMu  sync.Mutex // serializes Attach/Detach; Lookup never takes it
	snapshot atomic.Pointer[map[string][]*Consumer]
	seq      int64
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	empty := map[string][]*Consumer{}
	r.snapshot.Store(&empty)
	return r
}

// Attach registers a consumer for service (role=source) under basePath,
// with the given filter-driving metadata already present on service.
// Returns the attached Consumer, used as the handle for Detach.
func (r *Registry) Attach(service *env.ServiceDefinition, basePath string, replyWithCloudEvent bool, receiver Receiver) *Consumer {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.seq++
	c := newConsumer(service, basePath, replyWithCloudEvent, receiver, r.seq)

	next := cloneSnapshot(*r.snapshot.Load())
	next[c.effectivePath] = insertSorted(next[c.effectivePath], c)
	r.snapshot.Store(&next)

	return c
}

// Detach removes a previously attached consumer. In-flight dispatches
// that already hold a reference to c complete normally; Detach only
// affects future Lookups.
func (r *Registry) Detach(c *Consumer) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := cloneSnapshot(*r.snapshot.Load())
	list := next[c.effectivePath]
	for i, existing := range list {
		if existing == c {
			list = append(append([]*Consumer{}, list[:i]...), list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(next, c.effectivePath)
	} else {
		next[c.effectivePath] = list
	}
	r.snapshot.Store(&next)
}

// Lookup selects at most one consumer for an incoming request's path and
// headers. Candidates sharing path are tried in order (largest filter set
// first, ties by declaration order); the first whose filters all match is
// selected.
func (r *Registry) Lookup(path string, h http.Header) (*Consumer, bool) {
	snap := *r.snapshot.Load()
	candidates := snap[path]
	for _, c := range candidates {
		if c.matches(h) {
			return c, true
		}
	}
	return nil, false
}

func cloneSnapshot(m map[string][]*Consumer) map[string][]*Consumer {
	out := make(map[string][]*Consumer, len(m))
	for k, v := range m {
		cp := make([]*Consumer, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// insertSorted adds c to list keeping selection order: strictly larger
// filter sets first, ties broken by declaration order (seq ascending).
func insertSorted(list []*Consumer, c *Consumer) []*Consumer {
	out := append(append([]*Consumer{}, list...), c)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FilterCount() != out[j].FilterCount() {
			return out[i].FilterCount() > out[j].FilterCount()
		}
		return out[i].seq < out[j].seq
	})
	return out
}
