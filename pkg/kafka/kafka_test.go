package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type countingHandler struct {
	topic    string
	failures int
	calls    int
}

func (h *countingHandler) Topic() string { return h.topic }

func (h *countingHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func TestProducerEncodesPayloads(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "results", []byte("k"), map[string]int{"a": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "results", w.msgs[0].Topic)
	assert.Equal(t, []byte("k"), w.msgs[0].Key)
	assert.JSONEq(t, `{"a":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))

	assert.Error(t, p.Publish(context.Background(), "", nil, "x"))

	w.err = errors.New("broker down")
	assert.Error(t, p.PublishMessage(context.Background(), "logs", "x"))
}

func newTestConsumer(retries int, dlq *fakeWriter) (*Consumer, *fakeReader) {
	cfg := &ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  1,
		RetryMax:    retries,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	}
	c := newConsumer(cfg, nil)
	r := &fakeReader{}
	if dlq != nil {
		c.cfg.DLQTopic = "requests.dlq"
		c.dlq = dlq
	}
	return c, r
}

func TestProcessRetriesThenCommits(t *testing.T) {
	c, r := newTestConsumer(3, nil)
	h := &countingHandler{topic: "requests", failures: 2}
	c.RegisterHandler(h)
	c.readers["requests"] = r

	c.process(&message{topic: "requests", km: kafka.Message{Offset: 7, Value: []byte("{}")}})

	assert.Equal(t, 3, h.calls)
	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(7), r.committed[0].Offset)
}

func TestProcessDeadLettersAfterRetries(t *testing.T) {
	dlq := &fakeWriter{}
	c, r := newTestConsumer(1, dlq)
	h := &countingHandler{topic: "requests", failures: 100}
	c.RegisterHandler(h)
	c.readers["requests"] = r

	c.process(&message{topic: "requests", km: kafka.Message{Value: []byte("bad")}})

	assert.Equal(t, 2, h.calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "requests.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "bad", string(dlq.msgs[0].Value))
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
	assert.Len(t, r.committed, 1)
}

func TestProcessWithoutDLQDoesNotCommitFailures(t *testing.T) {
	c, r := newTestConsumer(0, nil)
	c.RegisterHandler(&countingHandler{topic: "requests", failures: 1})
	c.readers["requests"] = r

	c.process(&message{topic: "requests", km: kafka.Message{}})
	assert.Empty(t, r.committed)
}

func TestHookChainOrderAndPanicSafety(t *testing.T) {
	var order []string
	hook := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, d, nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(hook("a"), nil, hook("b"))
	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	chain.AfterHandle(ctx, "t", km, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	panicky := HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
		panic("boom")
	}}
	_, _, _, err = NewHookChain(panicky).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("t-1")}}}
	ctx, _, _, err := TraceHook{}.BeforeHandle(context.Background(), "t", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "t-1", TraceIDFrom(ctx))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

func TestConsumerStartStop(t *testing.T) {
	c, r := newTestConsumer(0, nil)
	c.newReader = func(string) messageReader { return r }
	assert.Error(t, c.Start())

	c.RegisterHandler(&countingHandler{topic: "requests"})
	require.NoError(t, c.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Stop(ctx))
}
