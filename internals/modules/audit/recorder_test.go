package audit

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"watchpost/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	entries  []Entry
	failures int // first N InsertBatch calls fail
	calls    int
}

func (f *fakeStore) InsertBatch(ctx context.Context, entries []Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("storage timeout")
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeStore) all() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

func testAuditCfg() *config.AuditConfig {
	return &config.AuditConfig{
		BufferSize:    64,
		BatchSize:     10,
		FlushInterval: 20 * time.Millisecond,
	}
}

func TestRecorderFlushesEverythingOnClose(t *testing.T) {
	store := &fakeStore{}
	logger := zerolog.Nop()

	rec := NewRecorder(context.Background(), store, nil, testAuditCfg(), &logger)
	rec.Run()

	monitorID := uuid.New()
	for i := 0; i < 25; i++ {
		rec.Record(IncidentCreated, monitorID, map[string]string{"seq": "x"})
	}
	rec.Close()

	got := store.all()
	require.Len(t, got, 25)
	for _, e := range got {
		assert.Equal(t, IncidentCreated, e.Kind)
		assert.Equal(t, monitorID, e.MonitorID)
		assert.False(t, e.At.IsZero())
	}
}

func TestRecorderRetriesFailedFlush(t *testing.T) {
	store := &fakeStore{failures: 2}
	logger := zerolog.Nop()

	rec := NewRecorder(context.Background(), store, nil, testAuditCfg(), &logger)
	rec.Run()

	rec.Record(MonitorFailed, uuid.New(), nil)
	rec.Close()

	// two failing attempts, then the batch lands
	assert.GreaterOrEqual(t, store.calls, 3)
	assert.Len(t, store.all(), 1)
}

func TestRecorderSpillsExhaustedBatchToLog(t *testing.T) {
	// storage never recovers: the batch must land in the log in
	// replayable JSON form, not disappear
	store := &fakeStore{failures: 100}
	var buf syncBuffer
	logger := zerolog.New(&buf)

	rec := NewRecorder(context.Background(), store, nil, testAuditCfg(), &logger)
	rec.retrySleep = time.Millisecond
	rec.Run()

	monitorID := uuid.New()
	rec.Record(IncidentCreated, monitorID, map[string]string{"incident_id": "abc"})
	rec.Close()

	assert.Empty(t, store.all())
	out := buf.String()
	assert.Contains(t, out, "unflushed audit entry")
	assert.Contains(t, out, "incident.created")
	assert.Contains(t, out, monitorID.String())
}

// syncBuffer guards the log sink, zerolog may write from the flush
// goroutine while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (f *fakePublisher) PublishBatch(ctx context.Context, bodies [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, bodies...)
	return nil
}

func TestRecorderPublishesAfterStore(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	logger := zerolog.Nop()

	rec := NewRecorder(context.Background(), store, pub, testAuditCfg(), &logger)
	rec.Run()

	rec.Record(NotificationSent, uuid.New(), map[string]string{"channel": "slack"})
	rec.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.bodies, 1)
	assert.Contains(t, string(pub.bodies[0]), "notification.sent")
}
