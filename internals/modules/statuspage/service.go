package statuspage

import (
	"context"
	"encoding/json"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/report"
	"watchpost/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MonitorSource interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]monitor.Monitor, error)
}

type ReportSource interface {
	ActiveReports(ctx context.Context, monitorIDs []uuid.UUID) ([]report.Report, error)
	ListMaintenance(ctx context.Context, workspaceID uuid.UUID) ([]report.MaintenanceWindow, error)
}

type FeedCache interface {
	GetFeed(ctx context.Context, slug string) ([]byte, bool)
	SetFeed(ctx context.Context, slug string, doc []byte, ttl time.Duration) error
	DelFeed(ctx context.Context, slug string) error
}

type Service struct {
	pageRepo *Repository
	monitors MonitorSource
	reports  ReportSource
	cache    FeedCache
	feedTTL  time.Duration
	logger   *zerolog.Logger
}

func NewService(pageRepo *Repository, monitors MonitorSource, reports ReportSource, cache FeedCache, cfg *config.StatusPageConfig, logger *zerolog.Logger) *Service {
	return &Service{
		pageRepo: pageRepo,
		monitors: monitors,
		reports:  reports,
		cache:    cache,
		feedTTL:  cfg.FeedCacheTTL,
		logger:   logger,
	}
}

func (s *Service) CreatePage(ctx context.Context, cmd CreatePageCmd) (uuid.UUID, error) {
	return s.pageRepo.Create(ctx, cmd)
}

func (s *Service) GetAllPages(ctx context.Context, workspaceID uuid.UUID) ([]Page, error) {
	return s.pageRepo.GetAll(ctx, workspaceID)
}

func (s *Service) UpdatePage(ctx context.Context, workspaceID, pageID uuid.UUID, cmd UpdatePageCmd) error {
	slug, err := s.pageRepo.SlugOf(ctx, workspaceID, pageID)
	if err != nil {
		return err
	}
	if err := s.pageRepo.Update(ctx, workspaceID, pageID, cmd); err != nil {
		return err
	}
	// the cached feed is stale the moment the page changes
	_ = s.cache.DelFeed(ctx, slug)
	return nil
}

func (s *Service) DeletePage(ctx context.Context, workspaceID, pageID uuid.UUID) error {
	slug, err := s.pageRepo.SlugOf(ctx, workspaceID, pageID)
	if err != nil {
		return err
	}
	if err := s.pageRepo.Delete(ctx, workspaceID, pageID); err != nil {
		return err
	}
	_ = s.cache.DelFeed(ctx, slug)
	return nil
}

// Feed renders the public document for a slug. The rendered JSON is
// cached whole; within the TTL every request is one redis read.
func (s *Service) Feed(ctx context.Context, slug string) ([]byte, error) {
	if doc, ok := s.cache.GetFeed(ctx, slug); ok {
		return doc, nil
	}

	page, err := s.pageRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	feed, err := s.buildFeed(ctx, page)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(feed)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetFeed(ctx, slug, doc, s.feedTTL); err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("failed to cache status feed")
	}
	return doc, nil
}

func (s *Service) buildFeed(ctx context.Context, page Page) (Feed, error) {
	monitors, err := s.monitors.GetByIDs(ctx, page.Monitors)
	if err != nil {
		return Feed{}, err
	}

	feed := Feed{
		Slug:          page.Slug,
		Name:          page.Name,
		Monitors:      make([]FeedMonitor, 0, len(monitors)),
		StatusReports: make([]FeedReport, 0),
		Maintenances:  make([]FeedMaintenance, 0),
		GeneratedAt:   time.Now().UTC(),
	}

	for i := range monitors {
		feed.Monitors = append(feed.Monitors, FeedMonitor{
			ID:     monitors[i].ID.String(),
			Name:   monitors[i].Name,
			Status: string(monitors[i].Status),
		})
	}
	feed.Status = overallStatus(monitors)

	reports, err := s.reports.ActiveReports(ctx, page.Monitors)
	if err != nil {
		return Feed{}, err
	}
	for i := range reports {
		feed.StatusReports = append(feed.StatusReports, FeedReport{
			Title:     reports[i].Title,
			Status:    string(reports[i].Status),
			UpdatedAt: reports[i].UpdatedAt,
		})
	}

	windows, err := s.reports.ListMaintenance(ctx, page.WorkspaceID)
	if err != nil {
		return Feed{}, err
	}
	for i := range windows {
		title := windows[i].Title
		if title == "" {
			title = "Scheduled maintenance"
		}
		feed.Maintenances = append(feed.Maintenances, FeedMaintenance{
			Title:    title,
			StartsAt: windows[i].StartsAt,
			EndsAt:   windows[i].EndsAt,
			Active:   windows[i].Started && !windows[i].Ended,
		})
	}

	return feed, nil
}

// overallStatus folds the page's monitors the same way Aggregate folds
// regions: the worst visible state wins, no data at all reads unknown.
func overallStatus(monitors []monitor.Monitor) string {
	overall := status.AggregateUnknown
	for i := range monitors {
		switch monitors[i].Status {
		case status.AggregateError:
			return string(status.AggregateError)
		case status.AggregateDegraded:
			overall = status.AggregateDegraded
		case status.AggregateActive:
			if overall == status.AggregateUnknown {
				overall = status.AggregateActive
			}
		}
	}
	return string(overall)
}
