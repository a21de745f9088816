package status

import (
	"time"

	"github.com/google/uuid"
)

// Region is a geographic probe location, e.g. "ams", "fra".
type Region string

// RegionStatus is the health of one monitor in one region, derived from
// the latest CheckResult for that region. Only the latest value matters.
type RegionStatus string

const (
	RegionActive   RegionStatus = "active"
	RegionDegraded RegionStatus = "degraded"
	RegionError    RegionStatus = "error"
)

// AggregateStatus is the monitor-level health shown to users, folded
// from all regions' statuses.
type AggregateStatus string

const (
	AggregateActive   AggregateStatus = "active"
	AggregateDegraded AggregateStatus = "degraded"
	AggregateError    AggregateStatus = "error"
	AggregateUnknown  AggregateStatus = "unknown"
)

// CheckResult is the immutable fact produced by the external check
// executor. It is never updated after creation.
type CheckResult struct {
	MonitorID        uuid.UUID
	Region           Region
	Timestamp        time.Time
	LatencyMs        int64
	StatusCode       int    // 0 when the probe never completed
	Error            string // probe failure reason, empty on success
	AssertionsPassed bool
}

type AssertionKind string

const (
	AssertStatusCode    AssertionKind = "status_code"
	AssertLatencyUnder  AssertionKind = "latency_under_ms"
	AssertBodyContains  AssertionKind = "body_contains"
	AssertHeaderPresent AssertionKind = "header_present"
)

// Assertion is one predicate a monitor configures against its check
// results. The executor evaluates body/header assertions at probe time
// (AssertionsPassed); the engine re-checks the ones it can see here.
type Assertion struct {
	Kind   AssertionKind `json:"kind"`
	Value  int64         `json:"value,omitempty"`
	Target string        `json:"target,omitempty"`
}

func (a Assertion) Evaluate(r CheckResult) bool {
	switch a.Kind {
	case AssertStatusCode:
		return int64(r.StatusCode) == a.Value
	case AssertLatencyUnder:
		return r.LatencyMs < a.Value
	case AssertBodyContains, AssertHeaderPresent:
		// checked at probe time, already folded into AssertionsPassed
		return true
	default:
		// unknown assertion kinds fail closed
		return false
	}
}
