package result

import (
	"time"

	"watchpost/internals/modules/status"

	"github.com/google/uuid"
)

type SubmitResultRequest struct {
	MonitorID        string    `json:"monitor_id" validate:"required,uuid"`
	Region           string    `json:"region" validate:"required,min=2"`
	Timestamp        time.Time `json:"timestamp" validate:"required"`
	LatencyMs        int64     `json:"latency_ms" validate:"gte=0"`
	StatusCode       int       `json:"status_code" validate:"gte=0,lte=599"`
	Error            string    `json:"error"`
	AssertionsPassed *bool     `json:"assertions_passed" validate:"required"`
}

func (r *SubmitResultRequest) toCheckResult() (status.CheckResult, error) {
	monitorID, err := uuid.Parse(r.MonitorID)
	if err != nil {
		return status.CheckResult{}, err
	}
	return status.CheckResult{
		MonitorID:        monitorID,
		Region:           status.Region(r.Region),
		Timestamp:        r.Timestamp,
		LatencyMs:        r.LatencyMs,
		StatusCode:       r.StatusCode,
		Error:            r.Error,
		AssertionsPassed: *r.AssertionsPassed,
	}, nil
}
