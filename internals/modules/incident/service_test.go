package incident

import (
	"context"
	"errors"
	"testing"
	"time"

	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServiceStore struct {
	incidents  map[uuid.UUID]Incident
	resolveErr error
	resolved   []uuid.UUID
}

func (f *fakeServiceStore) Get(ctx context.Context, workspaceID, incidentID uuid.UUID) (Incident, error) {
	inc, ok := f.incidents[incidentID]
	if !ok {
		return Incident{}, errors.New("not found")
	}
	return inc, nil
}

func (f *fakeServiceStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, openOnly bool, limit, offset int32) ([]Incident, error) {
	return nil, nil
}

func (f *fakeServiceStore) Acknowledge(ctx context.Context, workspaceID, incidentID uuid.UUID, actor string) error {
	return nil
}

func (f *fakeServiceStore) ResolveByID(ctx context.Context, workspaceID, incidentID uuid.UUID) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	f.resolved = append(f.resolved, incidentID)
	return nil
}

func (f *fakeServiceStore) AttachScreenshot(ctx context.Context, incidentID uuid.UUID, url string) error {
	return nil
}

type fakeSnapshotCache struct {
	deleted []uuid.UUID
}

func (f *fakeSnapshotCache) DelAggregate(ctx context.Context, monitorID uuid.UUID) error {
	f.deleted = append(f.deleted, monitorID)
	return nil
}

func openIncident(monitorID uuid.UUID) Incident {
	return Incident{
		ID:        uuid.New(),
		MonitorID: monitorID,
		State:     StateOpen,
		Cause:     "all regions failing",
		StartedAt: time.Now(),
	}
}

func TestManualResolveClearsAggregateSnapshot(t *testing.T) {
	monitorID := uuid.New()
	inc := openIncident(monitorID)
	store := &fakeServiceStore{incidents: map[uuid.UUID]Incident{inc.ID: inc}}
	cache := &fakeSnapshotCache{}
	aud := &fakeAuditor{}
	logger := zerolog.Nop()

	svc := NewService(store, cache, aud, &logger)
	require.NoError(t, svc.ResolveManual(context.Background(), uuid.New(), inc.ID))

	assert.Equal(t, []uuid.UUID{inc.ID}, store.resolved)
	// the snapshot is gone, so a still-failing monitor reopens on its
	// next error result instead of being deduped against stale state
	assert.Equal(t, []uuid.UUID{monitorID}, cache.deleted)
	assert.Contains(t, aud.kinds, audit.IncidentResolved)
}

func TestManualResolveFailureKeepsSnapshot(t *testing.T) {
	monitorID := uuid.New()
	inc := openIncident(monitorID)
	store := &fakeServiceStore{
		incidents:  map[uuid.UUID]Incident{inc.ID: inc},
		resolveErr: errors.New("store unavailable"),
	}
	cache := &fakeSnapshotCache{}
	logger := zerolog.Nop()

	svc := NewService(store, cache, &fakeAuditor{}, &logger)
	require.Error(t, svc.ResolveManual(context.Background(), uuid.New(), inc.ID))

	assert.Empty(t, cache.deleted)
}

func TestManualResolveThenErrorReopens(t *testing.T) {
	// the full loop: error opens, operator resolves, monitor is still
	// failing, the next error result opens a second incident
	f := newFixture(t)
	m := testMonitor()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	require.Equal(t, 1, f.store.created)

	// operator resolve: close the row and drop the snapshot, the way
	// Service.ResolveManual does
	_, resolved, err := f.store.ResolveOpen(context.Background(), m.ID)
	require.NoError(t, err)
	require.True(t, resolved)
	f.cache.mu.Lock()
	delete(f.cache.aggs, m.ID)
	f.cache.mu.Unlock()

	require.NoError(t, f.coord.Apply(context.Background(), m, status.AggregateError))
	assert.Equal(t, 2, f.store.created)
}
