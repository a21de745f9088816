package statuspage

import "time"

type CreatePageRequest struct {
	Slug     string   `json:"slug" validate:"required,min=3,max=63,hostname_rfc1123"`
	Name     string   `json:"name" validate:"required,max=120"`
	Monitors []string `json:"monitors" validate:"required,min=1,dive,uuid"`
}

type UpdatePageRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Monitors []string `json:"monitors" validate:"required,min=1,dive,uuid"`
}

type PageResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Monitors  []string  `json:"monitors,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toPageResponse(p *Page) PageResponse {
	monitors := make([]string, 0, len(p.Monitors))
	for _, id := range p.Monitors {
		monitors = append(monitors, id.String())
	}
	return PageResponse{
		ID:        p.ID.String(),
		Slug:      p.Slug,
		Name:      p.Name,
		Monitors:  monitors,
		CreatedAt: p.CreatedAt,
	}
}
