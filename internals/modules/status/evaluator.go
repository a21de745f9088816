package status

import "time"

// EvaluateRegion derives the region status for a single check result.
// Pure: same result in, same status out.
//
//   - probe error or any failed assertion -> error
//   - latency above the degraded threshold -> degraded
//   - otherwise -> active
func EvaluateRegion(degradedAfter time.Duration, assertions []Assertion, r CheckResult) RegionStatus {
	if r.Error != "" || !r.AssertionsPassed {
		return RegionError
	}

	for _, a := range assertions {
		if !a.Evaluate(r) {
			return RegionError
		}
	}

	if degradedAfter > 0 && time.Duration(r.LatencyMs)*time.Millisecond > degradedAfter {
		return RegionDegraded
	}

	return RegionActive
}

// Aggregate folds the current snapshot of region statuses into the
// monitor-level status. Commutative and idempotent over the snapshot,
// so region updates may arrive in any order.
//
// One failing region marks the whole monitor as error: a partial outage
// is user-visible, and under-alerting is worse than over-alerting here.
//
// A paused monitor, or one with no region reporting at all, is unknown.
// No data is not the same as bad data and never triggers an incident.
func Aggregate(active bool, regions map[Region]RegionStatus) AggregateStatus {
	if !active || len(regions) == 0 {
		return AggregateUnknown
	}

	agg := AggregateActive
	for _, s := range regions {
		switch s {
		case RegionError:
			return AggregateError
		case RegionDegraded:
			agg = AggregateDegraded
		}
	}

	return agg
}
