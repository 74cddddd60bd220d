package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
)

func TestBus_PublishAppearsInHistoryOnce(t *testing.T) {
	b := New()
	msg := core.NewMessage("A", "B", core.KindStatus, core.StatusUpdate{Stage: "test"}, "trace-1")

	b.Publish(context.Background(), msg)

	var found int
	for _, m := range b.History("trace-1") {
		if m.ID == msg.ID {
			found++
		}
	}
	assert.Equal(t, 1, found, "published message should appear in trace history exactly once")
	assert.Empty(t, b.History("other-trace"))
}

func TestBus_HistoryBounded(t *testing.T) {
	b := New(func(o *Options) { o.HistoryLimit = 3 })
	for i := 0; i < 5; i++ {
		b.Publish(context.Background(), core.NewMessage("A", "B", core.KindStatus, nil, "t"))
	}
	assert.Len(t, b.History(""), 3, "history should retain only the newest N messages")
}

func TestBus_SynchronousReply(t *testing.T) {
	b := New()
	b.Subscribe("Echo", []core.Kind{core.KindRetrievalRequest}, func(_ context.Context, msg core.Message) (*core.Message, error) {
		reply := msg.Reply("Echo", core.KindRetrievalResponse, core.RetrievalResponse{Query: "q"})
		return &reply, nil
	})

	msg := core.NewMessage("Caller", "Echo", core.KindRetrievalRequest, core.RetrievalRequest{Query: "q"}, "t")
	resp, err := b.RequestResponse(context.Background(), msg, time.Second)

	require.NoError(t, err)
	assert.Equal(t, core.KindRetrievalResponse, resp.Kind)
	assert.Equal(t, msg.ID, resp.CorrelID)
}

func TestBus_AsynchronousResolution(t *testing.T) {
	b := New()
	b.Subscribe("Slow", []core.Kind{core.KindGenerationRequest}, func(_ context.Context, msg core.Message) (*core.Message, error) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			reply := msg.Reply("Slow", core.KindGenerationResponse, core.GenerationResponse{Answer: "later"})
			b.Publish(context.Background(), reply)
		}()
		return nil, nil
	})

	msg := core.NewMessage("Caller", "Slow", core.KindGenerationRequest, core.GenerationRequest{}, "t")
	resp, err := b.RequestResponse(context.Background(), msg, time.Second)

	require.NoError(t, err)
	payload, ok := resp.Payload.(core.GenerationResponse)
	require.True(t, ok)
	assert.Equal(t, "later", payload.Answer)
}

func TestBus_NoSubscriberTimesOut(t *testing.T) {
	b := New()
	msg := core.NewMessage("Caller", "Nobody", core.KindRetrievalRequest, core.RetrievalRequest{}, "t")

	start := time.Now()
	_, err := b.RequestResponse(context.Background(), msg, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "expected ErrTimeout, got %v", err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second, "must not hang past the configured timeout")
}

func TestBus_HandlerFailureDoesNotAbortDelivery(t *testing.T) {
	b := New()
	delivered := false
	b.Subscribe("X", []core.Kind{core.KindStatus}, func(context.Context, core.Message) (*core.Message, error) {
		return nil, errors.New("boom")
	})
	b.Subscribe("X", []core.Kind{core.KindStatus}, func(context.Context, core.Message) (*core.Message, error) {
		panic("handler panic")
	})
	b.Subscribe("X", []core.Kind{core.KindStatus}, func(context.Context, core.Message) (*core.Message, error) {
		delivered = true
		return nil, nil
	})

	b.Publish(context.Background(), core.NewMessage("A", "X", core.KindStatus, nil, "t"))

	assert.True(t, delivered, "later handlers should still run after a failure and a panic")
}

func TestBus_FirstResponderWins(t *testing.T) {
	b := New()
	secondCalled := false
	b.Subscribe("X", []core.Kind{core.KindStatus}, func(_ context.Context, msg core.Message) (*core.Message, error) {
		reply := msg.Reply("X", core.KindStatus, core.StatusUpdate{Stage: "first"})
		return &reply, nil
	})
	b.Subscribe("X", []core.Kind{core.KindStatus}, func(context.Context, core.Message) (*core.Message, error) {
		secondCalled = true
		return nil, nil
	})

	reply := b.Publish(context.Background(), core.NewMessage("A", "X", core.KindStatus, nil, "t"))

	require.NotNil(t, reply)
	assert.Equal(t, "first", reply.Payload.(core.StatusUpdate).Stage)
	assert.False(t, secondCalled, "delivery stops at the first synchronous reply")
}

func TestBus_KindFilteredDelivery(t *testing.T) {
	b := New()
	var got []core.Kind
	b.Subscribe("X", []core.Kind{core.KindRetrievalRequest}, func(_ context.Context, msg core.Message) (*core.Message, error) {
		got = append(got, msg.Kind)
		return nil, nil
	})

	b.Publish(context.Background(), core.NewMessage("A", "X", core.KindStatus, nil, "t"))
	b.Publish(context.Background(), core.NewMessage("A", "X", core.KindRetrievalRequest, core.RetrievalRequest{}, "t"))

	assert.Equal(t, []core.Kind{core.KindRetrievalRequest}, got)
}

func TestBus_LateReplyIsDropped(t *testing.T) {
	b := New()
	received := false
	b.Subscribe("Caller", []core.Kind{core.KindGenerationResponse}, func(context.Context, core.Message) (*core.Message, error) {
		received = true
		return nil, nil
	})

	late := core.NewMessage("Slow", "Caller", core.KindGenerationResponse, core.GenerationResponse{}, "t")
	late.CorrelID = "no-longer-pending"
	b.Publish(context.Background(), late)

	assert.False(t, received, "a correlated reply with no pending slot is dropped, not dispatched")
	assert.Len(t, b.History("t"), 1, "dropped replies still appear in history")
}
