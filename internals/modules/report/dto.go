package report

import "time"

type CreateReportRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Status   string   `json:"status" validate:"required,oneof=investigating identified monitoring resolved"`
	Message  string   `json:"message" validate:"required,max=5000"`
	Monitors []string `json:"monitors" validate:"dive,uuid"`
}

type AddUpdateRequest struct {
	Status  string `json:"status" validate:"required,oneof=investigating identified monitoring resolved"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ScheduleMaintenanceRequest struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Message  string    `json:"message" validate:"required,max=5000"`
	Monitors []string  `json:"monitors" validate:"dive,uuid"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type UpdateResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Status    string           `json:"status"`
	Monitors  []string         `json:"monitors,omitempty"`
	Updates   []UpdateResponse `json:"updates,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type MaintenanceResponse struct {
	ID       string    `json:"id"`
	ReportID string    `json:"report_id"`
	Title    string    `json:"title,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Started  bool      `json:"started"`
}

type ListReportsResponse struct {
	WorkspaceID string           `json:"workspace_id"`
	Limit       int32            `json:"limit"`
	Offset      int32            `json:"offset"`
	Reports     []ReportResponse `json:"reports"`
}

func toReportResponse(rep *Report) ReportResponse {
	monitors := make([]string, 0, len(rep.Monitors))
	for _, id := range rep.Monitors {
		monitors = append(monitors, id.String())
	}
	updates := make([]UpdateResponse, 0, len(rep.Updates))
	for _, u := range rep.Updates {
		updates = append(updates, UpdateResponse{
			Status:    string(u.Status),
			Message:   u.Message,
			CreatedAt: u.CreatedAt,
		})
	}
	return ReportResponse{
		ID:        rep.ID.String(),
		Title:     rep.Title,
		Status:    string(rep.Status),
		Monitors:  monitors,
		Updates:   updates,
		CreatedAt: rep.CreatedAt,
		UpdatedAt: rep.UpdatedAt,
	}
}

func toMaintenanceResponse(w *MaintenanceWindow) MaintenanceResponse {
	return MaintenanceResponse{
		ID:       w.ID.String(),
		ReportID: w.ReportID.String(),
		Title:    w.Title,
		StartsAt: w.StartsAt,
		EndsAt:   w.EndsAt,
		Started:  w.Started,
	}
}
