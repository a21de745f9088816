package monitor

import "watchpost/internals/modules/status"

type AssertionBody struct {
	Kind   string `json:"kind" validate:"required,oneof=status_code latency_under_ms body_contains header_present"`
	Value  int64  `json:"value" validate:"gte=0"`
	Target string `json:"target,omitempty" validate:"max=500"`
}

type CreateMonitorRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	JobType         string          `json:"job_type" validate:"required,oneof=http tcp"`
	Url             string          `json:"url" validate:"required"`
	Regions         []string        `json:"regions" validate:"required,min=1,dive,min=2"`
	Assertions      []AssertionBody `json:"assertions" validate:"dive"`
	DegradedAfterMs int32           `json:"degraded_after_ms" validate:"gte=0"`
	TimeoutMs       int32           `json:"timeout_ms" validate:"required,gte=1000,lte=60000"`
}

type UpdateMonitorRequest struct {
	Name            string          `json:"name" validate:"required,max=120"`
	Url             string          `json:"url" validate:"required"`
	Regions         []string        `json:"regions" validate:"required,min=1,dive,min=2"`
	Assertions      []AssertionBody `json:"assertions" validate:"dive"`
	DegradedAfterMs int32           `json:"degraded_after_ms" validate:"gte=0"`
	TimeoutMs       int32           `json:"timeout_ms" validate:"required,gte=1000,lte=60000"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type MonitorResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	JobType         string          `json:"job_type"`
	Url             string          `json:"url"`
	Regions         []string        `json:"regions"`
	Assertions      []AssertionBody `json:"assertions"`
	DegradedAfterMs int32           `json:"degraded_after_ms"`
	TimeoutMs       int32           `json:"timeout_ms"`
	Active          bool            `json:"active"`
	Status          string          `json:"status"`
}

type ListMonitorsResponse struct {
	WorkspaceID string            `json:"workspace_id"`
	Limit       int32             `json:"limit"`
	Offset      int32             `json:"offset"`
	Monitors    []MonitorResponse `json:"monitors"`
}

func toMonitorResponse(m *Monitor) MonitorResponse {
	regions := make([]string, 0, len(m.Regions))
	for _, r := range m.Regions {
		regions = append(regions, string(r))
	}
	assertions := make([]AssertionBody, 0, len(m.Assertions))
	for _, a := range m.Assertions {
		assertions = append(assertions, AssertionBody{Kind: string(a.Kind), Value: a.Value, Target: a.Target})
	}
	return MonitorResponse{
		ID:              m.ID.String(),
		Name:            m.Name,
		JobType:         string(m.JobType),
		Url:             m.Url,
		Regions:         regions,
		Assertions:      assertions,
		DegradedAfterMs: m.DegradedAfterMs,
		TimeoutMs:       m.TimeoutMs,
		Active:          m.Active,
		Status:          string(m.Status),
	}
}

func fromAssertionBodies(in []AssertionBody) []status.Assertion {
	out := make([]status.Assertion, 0, len(in))
	for _, a := range in {
		out = append(out, status.Assertion{Kind: status.AssertionKind(a.Kind), Value: a.Value, Target: a.Target})
	}
	return out
}

func fromRegionStrings(in []string) []status.Region {
	out := make([]status.Region, 0, len(in))
	for _, r := range in {
		out = append(out, status.Region(r))
	}
	return out
}
