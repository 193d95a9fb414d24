package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"golang.org/x/sync/errgroup"
)

// IntervalCounter is the aggregation entry point the dashboards are built on.
type IntervalCounter interface {
	IntervalCounts(ctx context.Context, req aggregation.Request) (aggregation.Result, error)
}

// Filters are the dashboard filters a user can pick.
type Filters struct {
	Statuses          []domain.Status
	Categories        []domain.Category
	ServiceIDs        []int64
	ServiceCodes      []string
	OrganisationTypes []string
	CCGs              []int64
	Breach            *bool
	FormalComplaint   *bool
}

// issueFilters turns the user filters into engine filters. Public views only
// ever see visible statuses, whatever was asked for.
func (f Filters) issueFilters(private bool) aggregation.IssueFilters {
	statuses := f.Statuses

	if !private {
		if statuses == nil {
			statuses = domain.VisibleStatuses
		} else {
			visible := make([]domain.Status, 0, len(statuses))
			for _, s := range statuses {
				if slices.Contains(domain.VisibleStatuses, s) {
					visible = append(visible, s)
				}
			}
			statuses = visible
		}
	}

	return aggregation.IssueFilters{
		Statuses:        statuses,
		Categories:      f.Categories,
		ServiceIDs:      f.ServiceIDs,
		ServiceCodes:    f.ServiceCodes,
		Breach:          f.Breach,
		FormalComplaint: f.FormalComplaint,
	}
}

func (f Filters) organisationFilters() aggregation.OrganisationFilters {
	return aggregation.OrganisationFilters{
		OrganisationTypes: f.OrganisationTypes,
		CCGs:              f.CCGs,
	}
}

type SummaryService interface {
	National(ctx context.Context, filters Filters, private bool) ([]aggregation.Row, error)
	CCG(ctx context.Context, ccgID int64, filters Filters) ([]aggregation.Row, error)
	Organisation(ctx context.Context, orgID int64, filters Filters) (*OrganisationDashboard, error)
	Parent(ctx context.Context, parentID int64, filters Filters) (*ParentDashboard, error)
	Map(ctx context.Context, bounds domain.Bounds, filters Filters) ([]aggregation.Row, error)
}

// StatusRow is the part of an organisation dashboard for one status.
type StatusRow struct {
	Status domain.Status   `json:"status"`
	Row    aggregation.Row `json:"counts"`
}

type OrganisationDashboard struct {
	Organisation *domain.Organisation `json:"-"`
	Total        aggregation.Row      `json:"total"`
	Summary      aggregation.Row      `json:"summary"`
	ByStatus     []StatusRow          `json:"by_status"`
	Reviews      aggregation.Row      `json:"reviews"`
}

type ParentDashboard struct {
	Rows   []aggregation.Row `json:"rows"`
	Totals aggregation.Row   `json:"totals"`
}

type SummaryServiceImpl struct {
	log           *slog.Logger
	engine        IntervalCounter
	organisations repository.OrganisationRepository
	threshold     config.Summary
}

func NewSummaryService(
	log *slog.Logger,
	engine IntervalCounter,
	organisations repository.OrganisationRepository,
	threshold config.Summary,
) *SummaryServiceImpl {
	return &SummaryServiceImpl{
		log:           log,
		engine:        engine,
		organisations: organisations,
		threshold:     threshold,
	}
}

func (s *SummaryServiceImpl) National(ctx context.Context, filters Filters, private bool) ([]aggregation.Row, error) {
	const op = "internal.service.summary.National"

	rows, err := s.problemsAndReviews(ctx, aggregation.Request{
		Issues:        filters.issueFilters(private),
		Organisations: filters.organisationFilters(),
	}, aggregation.Request{
		DataType:      aggregation.Reviews,
		Organisations: filters.organisationFilters(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.threshold.ThresholdCount > 0 {
		interval := aggregation.Interval(s.threshold.ThresholdInterval)
		before := len(rows)

		rows = aggregation.FilterByThreshold(rows, s.threshold.ThresholdCount,
			aggregation.MetricName(aggregation.Issues, interval),
			aggregation.MetricName(aggregation.Reviews, interval),
		)

		s.log.Debug("summary threshold applied",
			slog.String("op", op),
			slog.Int("before", before),
			slog.Int("after", len(rows)),
		)
	}

	return rows, nil
}

func (s *SummaryServiceImpl) CCG(ctx context.Context, ccgID int64, filters Filters) ([]aggregation.Row, error) {
	filters.CCGs = []int64{ccgID}

	return s.National(ctx, filters, true)
}

func (s *SummaryServiceImpl) Organisation(ctx context.Context, orgID int64, filters Filters) (*OrganisationDashboard, error) {
	const op = "internal.service.summary.Organisation"
	log := s.log.With(slog.String("op", op), slog.Int64("organisation_id", orgID))

	org, err := s.organisations.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	single := aggregation.OrganisationFilters{OrganisationID: &orgID}

	dashboard := &OrganisationDashboard{
		Organisation: org,
		ByStatus:     make([]StatusRow, len(domain.AllStatuses)),
	}

	total := filters.issueFilters(true)
	total.Statuses = nil

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		return s.single(gctx, aggregation.Request{Issues: total, Organisations: single}, &dashboard.Total)
	})

	g.Go(func() error {
		return s.single(gctx, aggregation.Request{Issues: filters.issueFilters(false), Organisations: single}, &dashboard.Summary)
	})

	for i, status := range domain.AllStatuses {
		i := i
		byStatus := total
		byStatus.Statuses = []domain.Status{status}
		dashboard.ByStatus[i].Status = status

		g.Go(func() error {
			return s.single(gctx, aggregation.Request{Issues: byStatus, Organisations: single}, &dashboard.ByStatus[i].Row)
		})
	}

	g.Go(func() error {
		return s.single(gctx, aggregation.Request{DataType: aggregation.Reviews, Organisations: single}, &dashboard.Reviews)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("organisation dashboard built")

	return dashboard, nil
}

func (s *SummaryServiceImpl) Parent(ctx context.Context, parentID int64, filters Filters) (*ParentDashboard, error) {
	const op = "internal.service.summary.Parent"

	ids, err := s.organisations.IDsByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no organisations for parent %d", apperrors.ErrNotFound, parentID)
	}

	orgs := filters.organisationFilters()
	orgs.OrganisationIDs = ids

	rows, err := s.problemsAndReviews(ctx,
		aggregation.Request{Issues: filters.issueFilters(true), Organisations: orgs},
		aggregation.Request{DataType: aggregation.Reviews, Organisations: orgs},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ParentDashboard{Rows: rows, Totals: aggregation.Summarise(rows)}, nil
}

func (s *SummaryServiceImpl) Map(ctx context.Context, bounds domain.Bounds, filters Filters) ([]aggregation.Row, error) {
	const op = "internal.service.summary.Map"

	ids, err := s.organisations.WithinBounds(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) == 0 {
		return []aggregation.Row{}, nil
	}

	orgs := filters.organisationFilters()
	orgs.OrganisationIDs = ids

	rows, err := s.problemsAndReviews(ctx, aggregation.Request{
		Issues:        filters.issueFilters(false),
		Organisations: orgs,
		Intervals:     []aggregation.Interval{aggregation.AllTimeOpen, aggregation.AllTimeClosed},
		AverageFields: []aggregation.AverageField{aggregation.TimeToAddress},
		BooleanFields: []aggregation.BooleanField{aggregation.HappyOutcome},
		Extra:         []aggregation.ExtraData{aggregation.Coords, aggregation.Type, aggregation.AverageRecommendationRating},
	}, aggregation.Request{
		DataType:      aggregation.Reviews,
		Organisations: orgs,
		Intervals:     []aggregation.Interval{aggregation.AllTime},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}

// problemsAndReviews runs both aggregations in parallel and joins them by organisation.
func (s *SummaryServiceImpl) problemsAndReviews(ctx context.Context, problems, reviews aggregation.Request) ([]aggregation.Row, error) {
	var problemRes, reviewRes aggregation.Result

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		problemRes, err = s.engine.IntervalCounts(gctx, problems)
		return err
	})

	g.Go(func() error {
		var err error
		reviewRes, err = s.engine.IntervalCounts(gctx, reviews)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregation.Merge(problemRes.Rows, reviewRes.Rows), nil
}

func (s *SummaryServiceImpl) single(ctx context.Context, req aggregation.Request, dst *aggregation.Row) error {
	res, err := s.engine.IntervalCounts(ctx, req)
	if err != nil {
		return err
	}

	row, err := res.Row()
	if err != nil {
		return err
	}

	*dst = row

	return nil
}
