package incident

import "time"

type AcknowledgeRequest struct {
	Actor string `json:"actor" validate:"required,max=120"`
}

type AttachScreenshotRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type IncidentResponse struct {
	ID             string     `json:"id"`
	MonitorID      string     `json:"monitor_id"`
	State          string     `json:"state"`
	Cause          string     `json:"cause"`
	ScreenshotURL  *string    `json:"screenshot_url,omitempty"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

type ListIncidentsResponse struct {
	WorkspaceID string             `json:"workspace_id"`
	Limit       int32              `json:"limit"`
	Offset      int32              `json:"offset"`
	Incidents   []IncidentResponse `json:"incidents"`
}

func toIncidentResponse(inc *Incident) IncidentResponse {
	return IncidentResponse{
		ID:             inc.ID.String(),
		MonitorID:      inc.MonitorID.String(),
		State:          string(inc.State),
		Cause:          inc.Cause,
		ScreenshotURL:  inc.ScreenshotURL,
		AcknowledgedBy: inc.AcknowledgedBy,
		AcknowledgedAt: inc.AcknowledgedAt,
		StartedAt:      inc.StartedAt,
		ResolvedAt:     inc.ResolvedAt,
	}
}
