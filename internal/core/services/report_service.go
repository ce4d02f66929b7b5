package services

import (
	"context"
	"time"

	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/domain"

	"golang.org/x/sync/errgroup"
)

// ReportService builds the maintenance summary report
type ReportService struct {
	requests repositories.RequestRepository
	now      func() time.Time
}

// NewReportService creates a new report service
func NewReportService(requests repositories.RequestRepository) *ReportService {
	return &ReportService{requests: requests, now: time.Now}
}

// Summary is the reporting snapshot
type Summary struct {
	ByStage     map[string]int64          `json:"by_stage"`
	ByType      map[string]int64          `json:"by_type"`
	ByTeam      []repositories.StageCount `json:"by_team"`
	ByCategory  []repositories.StageCount `json:"by_category"`
	Open        int64                     `json:"open"`
	Overdue     int64                     `json:"overdue"`
	Total       int64                     `json:"total"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// Summary runs the aggregate queries in parallel
func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	var (
		byStage, byType, byTeam, byCategory []repositories.StageCount
		overdue                             int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byStage, err = s.requests.CountBy(gctx, repositories.DimensionStage)
		return err
	})
	g.Go(func() (err error) {
		byType, err = s.requests.CountBy(gctx, repositories.DimensionType)
		return err
	})
	g.Go(func() (err error) {
		byTeam, err = s.requests.CountBy(gctx, repositories.DimensionTeam)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = s.requests.CountBy(gctx, repositories.DimensionCategory)
		return err
	})
	g.Go(func() (err error) {
		overdue, err = s.requests.CountOverdue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// every stage and type appears even when its count is zero
	summary := &Summary{
		ByStage:     make(map[string]int64, len(domain.Stages)),
		ByType:      map[string]int64{string(domain.RequestTypeCorrective): 0, string(domain.RequestTypePreventive): 0},
		ByTeam:      byTeam,
		ByCategory:  byCategory,
		Overdue:     overdue,
		GeneratedAt: s.now(),
	}
	for _, stage := range domain.Stages {
		summary.ByStage[string(stage)] = 0
	}
	for _, c := range byStage {
		summary.ByStage[c.Key] = c.Count
		summary.Total += c.Count
		if c.Key == string(domain.StageNew) || c.Key == string(domain.StageInProgress) {
			summary.Open += c.Count
		}
	}
	for _, c := range byType {
		summary.ByType[c.Key] = c.Count
	}
	return summary, nil
}
