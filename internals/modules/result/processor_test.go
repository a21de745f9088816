package result

import (
	"context"
	"sync"
	"testing"
	"time"

	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/status"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchpost/config"
)

type fakeMonitorLoader struct {
	monitors map[uuid.UUID]monitor.Monitor
}

func (f *fakeMonitorLoader) LoadMonitor(ctx context.Context, monitorID uuid.UUID) (monitor.Monitor, error) {
	m, ok := f.monitors[monitorID]
	if !ok {
		return monitor.Monitor{}, &apperror.Error{Kind: apperror.NotFound, Op: "test", Message: "resource not found"}
	}
	return m, nil
}

type fakeRegionStore struct {
	mu      sync.Mutex
	regions map[uuid.UUID]map[status.Region]status.RegionStatus
}

func (f *fakeRegionStore) StoreRegionStatus(ctx context.Context, monitorID uuid.UUID, region status.Region, rs status.RegionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.regions == nil {
		f.regions = make(map[uuid.UUID]map[status.Region]status.RegionStatus)
	}
	if f.regions[monitorID] == nil {
		f.regions[monitorID] = make(map[status.Region]status.RegionStatus)
	}
	f.regions[monitorID][region] = rs
	return nil
}

func (f *fakeRegionStore) GetRegionStatuses(ctx context.Context, monitorID uuid.UUID) (map[status.Region]status.RegionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[status.Region]status.RegionStatus, len(f.regions[monitorID]))
	for region, rs := range f.regions[monitorID] {
		out[region] = rs
	}
	return out, nil
}

type fakeApplier struct {
	mu      sync.Mutex
	applied []status.AggregateStatus
	ctxErrs []error
}

func (f *fakeApplier) Apply(ctx context.Context, m monitor.Monitor, next status.AggregateStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, next)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return nil
}

func newTestProcessor(t *testing.T, loader *fakeMonitorLoader, store *fakeRegionStore, applier *fakeApplier) *Processor {
	t.Helper()
	logger := zerolog.Nop()
	return NewProcessor(context.Background(), loader, store, applier, &config.ResultConfig{
		WorkerCount: 2,
		ChannelSize: 16,
	}, &logger)
}

func activeMonitor() monitor.Monitor {
	return monitor.Monitor{
		ID:              uuid.New(),
		WorkspaceID:     uuid.New(),
		Name:            "checkout api",
		Url:             "https://shop.example.com/health",
		Regions:         []status.Region{"ams", "fra"},
		DegradedAfterMs: 2000,
		Active:          true,
	}
}

func okResult(m monitor.Monitor, region status.Region) status.CheckResult {
	return status.CheckResult{
		MonitorID:        m.ID,
		Region:           region,
		Timestamp:        time.Now(),
		LatencyMs:        120,
		StatusCode:       200,
		AssertionsPassed: true,
	}
}

func TestHandleEvaluatesAndApplies(t *testing.T) {
	m := activeMonitor()
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)

	require.NoError(t, p.Handle(context.Background(), okResult(m, "ams")))

	assert.Equal(t, status.RegionActive, store.regions[m.ID]["ams"])
	require.Len(t, applier.applied, 1)
	assert.Equal(t, status.AggregateActive, applier.applied[0])
}

func TestHandleFailingRegionDrivesError(t *testing.T) {
	m := activeMonitor()
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)

	require.NoError(t, p.Handle(context.Background(), okResult(m, "ams")))

	failing := okResult(m, "fra")
	failing.Error = "connection refused"
	require.NoError(t, p.Handle(context.Background(), failing))

	// one healthy region does not mask the failing one
	require.Len(t, applier.applied, 2)
	assert.Equal(t, status.AggregateError, applier.applied[1])
}

func TestHandleSlowRegionDrivesDegraded(t *testing.T) {
	m := activeMonitor()
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)

	slow := okResult(m, "ams")
	slow.LatencyMs = 5000
	require.NoError(t, p.Handle(context.Background(), slow))

	assert.Equal(t, status.RegionDegraded, store.regions[m.ID]["ams"])
	require.Len(t, applier.applied, 1)
	assert.Equal(t, status.AggregateDegraded, applier.applied[0])
}

func TestHandleUnknownMonitorRejected(t *testing.T) {
	loader := &fakeMonitorLoader{}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)

	res := status.CheckResult{MonitorID: uuid.New(), Region: "ams", AssertionsPassed: true}
	require.NoError(t, p.Handle(context.Background(), res))

	assert.Empty(t, store.regions)
	assert.Empty(t, applier.applied)
}

func TestHandleInactiveMonitorSkipped(t *testing.T) {
	m := activeMonitor()
	m.Active = false
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)

	require.NoError(t, p.Handle(context.Background(), okResult(m, "ams")))

	assert.Empty(t, store.regions)
	assert.Empty(t, applier.applied)
}

func TestWorkerPoolDrainsOnClose(t *testing.T) {
	m := activeMonitor()
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	p := newTestProcessor(t, loader, store, applier)
	p.Run()

	for i := 0; i < 8; i++ {
		p.Submit(okResult(m, "ams"))
	}
	p.Close()

	applier.mu.Lock()
	defer applier.mu.Unlock()
	assert.Len(t, applier.applied, 8)
}

func TestQueuedResultsSurviveShutdownSignal(t *testing.T) {
	// results already accepted are drained with a live context even
	// after the run context is cancelled
	m := activeMonitor()
	loader := &fakeMonitorLoader{monitors: map[uuid.UUID]monitor.Monitor{m.ID: m}}
	store := &fakeRegionStore{}
	applier := &fakeApplier{}
	logger := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewProcessor(ctx, loader, store, applier, &config.ResultConfig{
		WorkerCount: 2,
		ChannelSize: 16,
	}, &logger)

	for i := 0; i < 8; i++ {
		p.Submit(okResult(m, "ams"))
	}
	cancel()
	p.Run()
	p.Close()

	applier.mu.Lock()
	defer applier.mu.Unlock()
	require.Len(t, applier.applied, 8)
	for _, err := range applier.ctxErrs {
		assert.NoError(t, err)
	}
}
