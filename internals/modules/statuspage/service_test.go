package statuspage

import (
	"context"
	"testing"
	"time"

	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/report"
	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitorSource struct {
	monitors []monitor.Monitor
}

func (f *fakeMonitorSource) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]monitor.Monitor, error) {
	return f.monitors, nil
}

type fakeReportSource struct {
	reports          []report.Report
	windows          []report.MaintenanceWindow
	maintenanceCalls int
}

func (f *fakeReportSource) ActiveReports(ctx context.Context, monitorIDs []uuid.UUID) ([]report.Report, error) {
	return f.reports, nil
}

func (f *fakeReportSource) ListMaintenance(ctx context.Context, workspaceID uuid.UUID) ([]report.MaintenanceWindow, error) {
	f.maintenanceCalls++
	return f.windows, nil
}

func namedMonitor(name string, agg status.AggregateStatus) monitor.Monitor {
	return monitor.Monitor{ID: uuid.New(), Name: name, Status: agg}
}

func TestOverallStatusWorstWins(t *testing.T) {
	cases := []struct {
		name     string
		monitors []monitor.Monitor
		want     string
	}{
		{
			name:     "all active",
			monitors: []monitor.Monitor{namedMonitor("a", status.AggregateActive), namedMonitor("b", status.AggregateActive)},
			want:     "active",
		},
		{
			name:     "one degraded",
			monitors: []monitor.Monitor{namedMonitor("a", status.AggregateActive), namedMonitor("b", status.AggregateDegraded)},
			want:     "degraded",
		},
		{
			name:     "error dominates degraded",
			monitors: []monitor.Monitor{namedMonitor("a", status.AggregateDegraded), namedMonitor("b", status.AggregateError)},
			want:     "error",
		},
		{
			name:     "unknown does not mask active",
			monitors: []monitor.Monitor{namedMonitor("a", status.AggregateUnknown), namedMonitor("b", status.AggregateActive)},
			want:     "active",
		},
		{
			name:     "all unknown",
			monitors: []monitor.Monitor{namedMonitor("a", status.AggregateUnknown)},
			want:     "unknown",
		},
		{
			name:     "no monitors",
			monitors: nil,
			want:     "unknown",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, overallStatus(tc.monitors))
		})
	}
}

func TestBuildFeedReadsMaintenanceTitlesInOnePass(t *testing.T) {
	m := namedMonitor("checkout api", status.AggregateActive)
	now := time.Now()
	reports := &fakeReportSource{
		windows: []report.MaintenanceWindow{
			{ReportID: uuid.New(), Title: "Database upgrade", StartsAt: now, EndsAt: now.Add(time.Hour), Started: true},
			{ReportID: uuid.New(), StartsAt: now.Add(2 * time.Hour), EndsAt: now.Add(3 * time.Hour)},
		},
	}
	logger := zerolog.Nop()
	s := &Service{
		monitors: &fakeMonitorSource{monitors: []monitor.Monitor{m}},
		reports:  reports,
		feedTTL:  time.Minute,
		logger:   &logger,
	}

	page := Page{Slug: "shop", Name: "Shop", WorkspaceID: uuid.New(), Monitors: []uuid.UUID{m.ID}}
	feed, err := s.buildFeed(context.Background(), page)
	require.NoError(t, err)

	require.Len(t, feed.Maintenances, 2)
	assert.Equal(t, "Database upgrade", feed.Maintenances[0].Title)
	assert.True(t, feed.Maintenances[0].Active)
	// windows without a joined title fall back to a generic label
	assert.Equal(t, "Scheduled maintenance", feed.Maintenances[1].Title)
	assert.False(t, feed.Maintenances[1].Active)
	// one listing query covers every window, no per-window report reads
	assert.Equal(t, 1, reports.maintenanceCalls)
	assert.Equal(t, "active", feed.Status)
}
