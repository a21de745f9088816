package incident

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notification/provider"
	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore mimics the conditional semantics of the real repository:
// one open incident per monitor at most.
type fakeStore struct {
	mu       sync.Mutex
	open     map[uuid.UUID]uuid.UUID
	created  int
	resolved int
	failN    int
}

func (f *fakeStore) CreateIfNoneOpen(ctx context.Context, monitorID, workspaceID uuid.UUID, cause string) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return uuid.Nil, false, errors.New("store unavailable")
	}
	if id, ok := f.open[monitorID]; ok {
		return id, false, nil
	}
	if f.open == nil {
		f.open = make(map[uuid.UUID]uuid.UUID)
	}
	id := uuid.New()
	f.open[monitorID] = id
	f.created++
	return id, true, nil
}

func (f *fakeStore) ResolveOpen(ctx context.Context, monitorID uuid.UUID) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return uuid.Nil, false, errors.New("store unavailable")
	}
	id, ok := f.open[monitorID]
	if !ok {
		return uuid.Nil, false, nil
	}
	delete(f.open, monitorID)
	f.resolved++
	return id, true, nil
}

type fakeAggCache struct {
	mu   sync.Mutex
	aggs map[uuid.UUID]status.AggregateStatus
}

func (f *fakeAggCache) GetAggregate(ctx context.Context, monitorID uuid.UUID) (status.AggregateStatus, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg, ok := f.aggs[monitorID]
	return agg, ok, nil
}

func (f *fakeAggCache) SetAggregate(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aggs == nil {
		f.aggs = make(map[uuid.UUID]status.AggregateStatus)
	}
	f.aggs[monitorID] = agg
	return nil
}

type fakeStatusWriter struct {
	mu   sync.Mutex
	last map[uuid.UUID]status.AggregateStatus
}

func (f *fakeStatusWriter) UpdateStatusProjection(ctx context.Context, monitorID uuid.UUID, agg status.AggregateStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		f.last = make(map[uuid.UUID]status.AggregateStatus)
	}
	f.last[monitorID] = agg
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []provider.Event
}

func (f *fakeNotifier) Enqueue(e provider.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeNotifier) kinds() []provider.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provider.EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeAuditor struct {
	mu    sync.Mutex
	kinds []audit.EventKind
}

func (f *fakeAuditor) Record(kind audit.EventKind, monitorID uuid.UUID, metadata map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

type coordinatorFixture struct {
	coord    *Coordinator
	store    *fakeStore
	cache    *fakeAggCache
	statuses *fakeStatusWriter
	notifier *fakeNotifier
	auditor  *fakeAuditor
}

func newFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	logger := zerolog.Nop()
	f := &coordinatorFixture{
		store:    &fakeStore{},
		cache:    &fakeAggCache{},
		statuses: &fakeStatusWriter{},
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
	}
	f.coord = NewCoordinator(f.store, f.cache, f.statuses, f.notifier, f.auditor, &logger)
	f.coord.retryDelay = time.Millisecond
	return f
}

func testMonitor() monitor.Monitor {
	return monitor.Monitor{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Name:        "checkout api",
		Url:         "https://shop.example.com/health",
		Active:      true,
	}
}

func TestErrorTransitionOpensIncident(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))

	assert.Equal(t, 1, f.store.created)
	assert.Equal(t, []provider.EventKind{provider.EventIncidentCreated}, f.notifier.kinds())
	assert.Contains(t, f.auditor.kinds, audit.MonitorFailed)
	assert.Contains(t, f.auditor.kinds, audit.IncidentCreated)
	assert.Equal(t, status.AggregateError, f.statuses.last[m.ID])
}

func TestRecoveryResolvesIncident(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateActive))

	assert.Equal(t, 1, f.store.resolved)
	assert.Empty(t, f.store.open)
	assert.Equal(t, []provider.EventKind{provider.EventIncidentCreated, provider.EventIncidentResolved}, f.notifier.kinds())
	assert.Equal(t, status.AggregateActive, f.statuses.last[m.ID])
}

func TestDuplicateTransitionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))

	assert.Equal(t, 1, f.store.created)
	assert.Len(t, f.notifier.kinds(), 1)
}

func TestDuplicateDeliveryWithColdSnapshot(t *testing.T) {
	// snapshot cache lost the previous value, the conditional insert is
	// the second line of defense
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	f.cache.aggs = nil
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))

	assert.Equal(t, 1, f.store.created)
}

func TestDegradedNotifiesWithoutIncident(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateDegraded))

	assert.Equal(t, 0, f.store.created)
	assert.Equal(t, []provider.EventKind{provider.EventMonitorDegraded}, f.notifier.kinds())
	assert.Contains(t, f.auditor.kinds, audit.MonitorDegraded)
}

func TestErrorThroughDegradedStillResolves(t *testing.T) {
	// error -> degraded -> active must close the incident opened at the
	// error step even though the immediate previous status was degraded
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateDegraded))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateActive))

	assert.Equal(t, 1, f.store.resolved)
	assert.Empty(t, f.store.open)
}

func TestUnknownIsSkipped(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateUnknown))

	assert.Equal(t, 0, f.store.created)
	assert.Empty(t, f.notifier.kinds())
	assert.Empty(t, f.statuses.last)
}

func TestActiveWithoutIncidentEmitsNoResolution(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateDegraded))
	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateActive))

	assert.Equal(t, 0, f.store.resolved)
	assert.Equal(t, []provider.EventKind{provider.EventMonitorDegraded}, f.notifier.kinds())
}

func TestConcurrentErrorsOpenOneIncident(t *testing.T) {
	f := newFixture(t)
	m := testMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.coord.Apply(context.Background(), m, status.AggregateError)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.created)
	assert.Len(t, f.notifier.kinds(), 1)
}

func TestStoreFailureRetriesThenSucceeds(t *testing.T) {
	f := newFixture(t)
	f.store.failN = 2
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))

	assert.Equal(t, 1, f.store.created)
	assert.Equal(t, int64(0), f.coord.Failures())
}

func TestStoreFailureExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	f.store.failN = 10
	m := testMonitor()

	err := f.coord.Apply(context.Background(), m, status.AggregateError)
	require.Error(t, err)

	assert.Equal(t, 0, f.store.created)
	assert.Equal(t, int64(1), f.coord.Failures())
	// the exhausted retry itself lands in the audit log
	assert.Contains(t, f.auditor.kinds, audit.EngineDegraded)
	assert.Empty(t, f.notifier.kinds())
	// snapshot must not advance past a failed persist
	_, ok, _ := f.cache.GetAggregate(context.Background(), m.ID)
	assert.False(t, ok)
}
