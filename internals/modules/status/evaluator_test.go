package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRegion(t *testing.T) {
	degradedAfter := 1000 * time.Millisecond

	tests := []struct {
		name       string
		assertions []Assertion
		result     CheckResult
		want       RegionStatus
	}{
		{
			name:   "fast successful check is active",
			result: CheckResult{StatusCode: 200, LatencyMs: 50, AssertionsPassed: true},
			want:   RegionActive,
		},
		{
			name:   "slow check is degraded",
			result: CheckResult{StatusCode: 200, LatencyMs: 1500, AssertionsPassed: true},
			want:   RegionDegraded,
		},
		{
			name:   "latency exactly at threshold stays active",
			result: CheckResult{StatusCode: 200, LatencyMs: 1000, AssertionsPassed: true},
			want:   RegionActive,
		},
		{
			name:   "probe error wins over latency",
			result: CheckResult{Error: "connection timeout", LatencyMs: 10, AssertionsPassed: true},
			want:   RegionError,
		},
		{
			name:   "executor-side assertion failure is error",
			result: CheckResult{StatusCode: 200, LatencyMs: 20, AssertionsPassed: false},
			want:   RegionError,
		},
		{
			name:       "status code assertion failure is error",
			assertions: []Assertion{{Kind: AssertStatusCode, Value: 200}},
			result:     CheckResult{StatusCode: 503, LatencyMs: 20, AssertionsPassed: true},
			want:       RegionError,
		},
		{
			name:       "passing assertions keep active",
			assertions: []Assertion{{Kind: AssertStatusCode, Value: 200}, {Kind: AssertLatencyUnder, Value: 500}},
			result:     CheckResult{StatusCode: 200, LatencyMs: 100, AssertionsPassed: true},
			want:       RegionActive,
		},
		{
			name:       "unknown assertion kind fails closed",
			assertions: []Assertion{{Kind: "body_matches", Value: 0}},
			result:     CheckResult{StatusCode: 200, LatencyMs: 100, AssertionsPassed: true},
			want:       RegionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRegion(degradedAfter, tt.assertions, tt.result)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateRegionIsDeterministic(t *testing.T) {
	r := CheckResult{StatusCode: 200, LatencyMs: 700, AssertionsPassed: true}

	first := EvaluateRegion(500*time.Millisecond, nil, r)
	second := EvaluateRegion(500*time.Millisecond, nil, r)

	assert.Equal(t, first, second)
	assert.Equal(t, RegionDegraded, first)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		active  bool
		regions map[Region]RegionStatus
		want    AggregateStatus
	}{
		{
			name:    "any error wins regardless of the rest",
			active:  true,
			regions: map[Region]RegionStatus{"ams": RegionActive, "fra": RegionError, "iad": RegionDegraded},
			want:    AggregateError,
		},
		{
			name:    "degraded without error",
			active:  true,
			regions: map[Region]RegionStatus{"ams": RegionActive, "fra": RegionDegraded},
			want:    AggregateDegraded,
		},
		{
			name:    "all active",
			active:  true,
			regions: map[Region]RegionStatus{"ams": RegionActive, "fra": RegionActive},
			want:    AggregateActive,
		},
		{
			name:    "no regions reporting is unknown",
			active:  true,
			regions: map[Region]RegionStatus{},
			want:    AggregateUnknown,
		},
		{
			name:    "paused monitor is unknown even with errors",
			active:  false,
			regions: map[Region]RegionStatus{"ams": RegionError},
			want:    AggregateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.active, tt.regions))
		})
	}
}

// Folding must not depend on map iteration order, so build many maps
// with a single error entry in different shapes and check the fold.
func TestAggregateErrorDominatesAnyShape(t *testing.T) {
	others := []RegionStatus{RegionActive, RegionDegraded}
	regionNames := []Region{"ams", "fra", "iad", "syd", "gru"}

	for i, errRegion := range regionNames {
		regions := make(map[Region]RegionStatus, len(regionNames))
		for j, name := range regionNames {
			if name == errRegion {
				regions[name] = RegionError
				continue
			}
			regions[name] = others[(i+j)%len(others)]
		}
		assert.Equal(t, AggregateError, Aggregate(true, regions))
	}
}
