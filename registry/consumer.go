// Package registry implements the mutable set of active inbound
// consumers: service definitions bound to a receiver callback and a
// matcher, indexed by path for the dispatcher's routing algorithm.
package registry

import (
	"context"
	"net/http"
	"regexp"

	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/message"
)

// Receiver is the routing engine's callback for a decoded inbound
// message. A nil returned Message means "no body" (HTTP 204); a non-nil
// error becomes an HTTP 500 with the error's text.
type Receiver func(ctx context.Context, msg *message.Message) (*message.Message, error)

// filterRule is one compiled filter.<header> predicate: the header's
// value must equal the literal string, or — only if the literal
// comparison fails — match the anchored regular expression compiled from
// the same declared value.
type filterRule struct {
	header  string
	literal string
	regex   *regexp.Regexp
}

func (f filterRule) matches(h http.Header) bool {
	v := h.Get(f.header)
	if v == "" {
		return false
	}
	if v == f.literal {
		return true
	}
	if f.regex != nil {
		return f.regex.MatchString(v)
	}
	return false
}

// compileFilters compiles a header→value map whose filter. prefix has
// already been stripped (see env.ServiceDefinition.FilterMetadata).
func compileFilters(filters map[string]string) []filterRule {
	var rules []filterRule
	for header, v := range filters {
		re, err := regexp.Compile("^(?:" + v + ")$")
		if err != nil {
			re = nil
		}
		rules = append(rules, filterRule{header: header, literal: v, regex: re})
	}
	return rules
}

// Consumer is an active inbound registration: a ServiceDefinition bound
// to a receiver callback, a base path, and a compiled filter predicate.
type Consumer struct {
	Service             *env.ServiceDefinition
	BasePath            string
	ReplyWithCloudEvent bool
	Receiver            Receiver

	effectivePath string
	filters       []filterRule
	seq           int64
}

// EffectivePath is BasePath + (service.path or "/").
func (c *Consumer) EffectivePath() string {
	return c.effectivePath
}

// FilterCount is the size of the consumer's compiled filter set, used by
// the registry to break ties between consumers sharing an effective path.
func (c *Consumer) FilterCount() int {
	return len(c.filters)
}

// matches reports whether h satisfies every one of the consumer's filter
// rules (an empty filter set matches unconditionally).
func (c *Consumer) matches(h http.Header) bool {
	for _, f := range c.filters {
		if !f.matches(h) {
			return false
		}
	}
	return true
}

func newConsumer(service *env.ServiceDefinition, basePath string, replyWithCloudEvent bool, receiver Receiver, seq int64) *Consumer {
	return &Consumer{
		Service:             service,
		BasePath:            basePath,
		ReplyWithCloudEvent: replyWithCloudEvent,
		Receiver:            receiver,
		effectivePath:       basePath + service.Path(),
		filters:             compileFilters(service.FilterMetadata()),
		seq:                 seq,
	}
}
