package producer

import (
	"context"

	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/internal/workerpool"
	"github.com/fxsml/knative-http-core/message"
)

// Outbound is one routing-engine-driven submission for Publish.
type Outbound struct {
	Sink    *env.ServiceDefinition
	URI     *env.URI
	Message *message.Message
}

// Result pairs an Outbound with its delivery outcome. Err is nil on
// success; Reply is the response message, following the same rules as
// Producer.Send.
type Result struct {
	Outbound *Outbound
	Reply    *message.Message
	Err      error
}

// Publish consumes Outbound submissions from in and delivers each with a
// bounded-concurrency worker pool. A per-item failure is reported on the
// returned channel as a Result with Err set; it never stops the pool.
func (p *Producer) Publish(ctx context.Context, in <-chan *Outbound, concurrency int) (<-chan *Result, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	fn := func(ctx context.Context, ob *Outbound) ([]*Result, error) {
		reply, err := p.Send(ctx, ob.Sink, ob.URI, ob.Message)
		return []*Result{{Outbound: ob, Reply: reply, Err: err}}, nil
	}

	return workerpool.Run(ctx, in, fn, workerpool.Config{
		Concurrency: concurrency,
		BufferSize:  concurrency,
	}), nil
}
