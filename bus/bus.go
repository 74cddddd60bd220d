package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
)

// ErrTimeout is returned by RequestResponse when no correlated reply arrives
// within the configured bound. Callers detect it with errors.Is.
var ErrTimeout = errors.New("bus: request timed out")

// Handler processes one delivered message. Returning a non-nil message is a
// synchronous reply to the sender; returning (nil, nil) means the handler
// either ignores the message or will reply asynchronously via Publish.
// Handlers must not panic; the bus recovers and logs if one does.
type Handler func(ctx context.Context, msg core.Message) (*core.Message, error)

type subscription struct {
	name    string
	kinds   map[core.Kind]struct{}
	handler Handler
}

func (s subscription) matches(msg core.Message) bool {
	if s.name != msg.Receiver {
		return false
	}
	_, ok := s.kinds[msg.Kind]
	return ok
}

// Options configures a Bus.
type Options struct {
	// HistoryLimit bounds the retained message history (newest kept).
	HistoryLimit int
	// Logger receives routing diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Bus routes messages to addressable subscribers and correlates replies to
// waiting requesters. All registries are internal and guarded by a single
// mutex; the mutex is never held across a handler invocation.
type Bus struct {
	mu      sync.Mutex
	subs    []subscription
	pending map[string]chan core.Message
	history []core.Message
	limit   int
	logger  logging.Logger
}

// New creates a Bus with optional overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{HistoryLimit: 1000, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Bus{
		pending: make(map[string]chan core.Message),
		limit:   opts.HistoryLimit,
		logger:  opts.Logger,
	}
}

// Subscribe registers handler for messages addressed to agentName with one of
// the given kinds. Duplicate subscriptions simply add another handler;
// delivery order among handlers is registration order.
func (b *Bus) Subscribe(agentName string, kinds []core.Kind, handler Handler) {
	ks := make(map[core.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		ks[k] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: agentName, kinds: ks, handler: handler})
}

// Publish delivers msg to every matching subscriber in registration order.
// The first handler returning a non-nil message stops delivery and its reply
// is returned; at most one handler is expected to reply synchronously per
// message. Handler failures are logged individually and do not abort
// delivery to remaining handlers. A message correlated to a pending request
// resolves that request instead of being dispatched; a correlated message
// with no pending slot (a late reply) is dropped. Publishing to a receiver
// with no subscribers is a no-op logged at warning level.
func (b *Bus) Publish(ctx context.Context, msg core.Message) *core.Message {
	b.record(msg)
	b.logger.Debug("message published",
		"sender", msg.Sender, "receiver", msg.Receiver,
		"kind", msg.Kind.String(), "trace_id", msg.TraceID)

	if msg.CorrelID != "" {
		if b.resolve(msg) {
			return nil
		}
		b.logger.Debug("late reply dropped", "correl_id", msg.CorrelID, "kind", msg.Kind.String())
		return nil
	}

	b.mu.Lock()
	matching := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(msg) {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	if len(matching) == 0 {
		b.logger.Warn("no subscriber for message", "receiver", msg.Receiver, "kind", msg.Kind.String())
		return nil
	}
	for _, s := range matching {
		reply, err := b.invoke(ctx, s, msg)
		if err != nil {
			metrics.HandlerFailures.Inc()
			b.logger.Error("handler failed", "receiver", msg.Receiver, "kind", msg.Kind.String(), "error", err)
			continue
		}
		if reply != nil {
			return reply
		}
	}
	return nil
}

// RequestResponse publishes msg and blocks until a correlated reply arrives
// or timeout elapses. A synchronous handler reply returns immediately; an
// asynchronous handler resolves the pending slot with a later Publish keyed
// to msg.ID. On timeout the pending entry is removed and the late reply, if
// any, is discarded.
func (b *Bus) RequestResponse(ctx context.Context, msg core.Message, timeout time.Duration) (core.Message, error) {
	ch := make(chan core.Message, 1)
	b.mu.Lock()
	b.pending[msg.ID] = ch
	b.mu.Unlock()

	remove := func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}

	if reply := b.Publish(ctx, msg); reply != nil {
		remove()
		return *reply, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		remove()
		metrics.RequestTimeouts.Inc()
		return core.Message{}, fmt.Errorf("%w after %s waiting for reply to %s (%s)",
			ErrTimeout, timeout, msg.ID, msg.Kind)
	case <-ctx.Done():
		remove()
		return core.Message{}, ctx.Err()
	}
}

// History returns a copy of the retained messages for traceID, oldest first.
// An empty traceID returns the full retained history.
func (b *Bus) History(traceID string) []core.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Message, 0, len(b.history))
	for _, m := range b.history {
		if traceID == "" || m.TraceID == traceID {
			out = append(out, m)
		}
	}
	return out
}

// resolve hands msg to the pending request it correlates to, if any.
func (b *Bus) resolve(msg core.Message) bool {
	b.mu.Lock()
	ch, ok := b.pending[msg.CorrelID]
	if ok {
		delete(b.pending, msg.CorrelID)
	}
	b.mu.Unlock()
	if ok {
		ch <- msg // buffered, never blocks
	}
	return ok
}

func (b *Bus) record(msg core.Message) {
	metrics.MessagesPublished.WithLabelValues(msg.Kind.String()).Inc()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, msg)
	if b.limit > 0 && len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(ctx context.Context, s subscription, msg core.Message) (reply *core.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(ctx, msg)
}
