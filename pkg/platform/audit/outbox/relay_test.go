package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	entries   []Entry
	published map[uuid.UUID]time.Time
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{published: map[uuid.UUID]time.Time{}}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		src.entries = append(src.entries, Entry{
			ID:          uuid.New(),
			AggregateID: "agg",
			EventType:   "prospect_transitioned",
			Payload:     []byte(`{}`),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
	}
	return src
}

func (f *fakeSource) Pending(_ context.Context, limit int) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Entry
	for _, e := range f.entries {
		if _, done := f.published[e.ID]; done {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSource) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.published[id] = at
	}
	return nil
}

type fakeProducer struct {
	failAfter int
	sent      []string
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, _ []byte) error {
	if p.failAfter >= 0 && len(p.sent) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, topic+"/"+key)
	return nil
}

func TestRelay_PublishesAndMarks(t *testing.T) {
	src := newFakeSource(3)
	prod := &fakeProducer{failAfter: -1}
	relay := NewRelay(src, prod, "leadflow.audit")

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, src.published, 3)
	assert.Equal(t, "leadflow.audit/agg", prod.sent[0])

	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_StopsAtFirstFailure(t *testing.T) {
	src := newFakeSource(4)
	prod := &fakeProducer{failAfter: 2}
	var hooked int
	relay := NewRelay(src, prod, "leadflow.audit", WithBatchSize(10),
		WithOnPublished(func(n int) { hooked += n }))

	n, err := relay.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, hooked)
	assert.Len(t, src.published, 2)
	for _, e := range src.entries[:2] {
		assert.Contains(t, src.published, e.ID)
	}
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	src := newFakeSource(1)
	prod := &fakeProducer{failAfter: -1}
	relay := NewRelay(src, prod, "t", WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := relay.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, src.published, 1)
}
