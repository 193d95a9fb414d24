package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/citizen-connect/internal/apperrors"
)

// Record is one organisation as returned by a Store: its identity, the
// passthrough columns and one value per plan metric. Count metrics are never
// nil, averages are nil when no fact row had a value.
type Record struct {
	OrganisationID              int64
	ODSCode                     string
	Name                        string
	OrganisationType            string
	Lat                         *float64
	Lon                         *float64
	AverageRecommendationRating *float64
	Values                      map[string]*float64
}

// Store runs a plan. Every organisation matching the organisation predicates
// yields one record, including organisations without any matching fact row.
type Store interface {
	Aggregate(ctx context.Context, plan *Plan) ([]Record, error)
}

type Engine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Engine)

// WithClock replaces the clock interval cutoffs are computed from.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   log,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Result holds the sorted rows of an aggregation. Single is set when the
// request named one organisation; use Row to get it.
type Result struct {
	Rows   []Row
	Single bool
}

// Row returns the only row of a single organisation result.
func (r Result) Row() (Row, error) {
	if len(r.Rows) == 0 {
		return Row{}, fmt.Errorf("%w: no data for organisation", apperrors.ErrNotFound)
	}

	return r.Rows[0], nil
}

func (e *Engine) IntervalCounts(ctx context.Context, req Request) (Result, error) {
	const op = "internal.aggregation.IntervalCounts"

	req, err := req.Normalize()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	log := e.log.With(slog.String("op", op), slog.String("data_type", string(req.DataType)))

	plan := NewPlan(req, e.now())

	records, err := e.store.Aggregate(ctx, plan)
	if err != nil {
		return Result{}, fmt.Errorf("%s: failed to aggregate: %w", op, err)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, buildRow(req, rec))
	}

	SortRows(rows)

	if req.Threshold != nil {
		rows = FilterByThreshold(rows, req.Threshold.Min, MetricName(req.DataType, req.Threshold.Interval))
	}

	log.Debug("interval counts computed", slog.Int("rows", len(rows)))

	return Result{Rows: rows, Single: req.Single()}, nil
}

func buildRow(req Request, rec Record) Row {
	row := newRow(rec.OrganisationID, rec.ODSCode, rec.Name)

	for _, extra := range req.Extra {
		switch extra {
		case Coords:
			row.Lat, row.Lon = rec.Lat, rec.Lon
		case Type:
			t := rec.OrganisationType
			row.Type = &t
		case AverageRecommendationRating:
			row.AverageRecommendationRating = rec.AverageRecommendationRating
		}
	}

	for _, interval := range req.Intervals {
		name := MetricName(req.DataType, interval)
		row.Counts[name] = intValue(rec.Values[name])
	}

	for _, f := range req.AverageFields {
		row.Averages[averageName(f)] = rec.Values[averageName(f)]
		row.Responses[string(f)] = intValue(rec.Values[responseName(string(f))])
	}

	for _, f := range req.BooleanFields {
		trueCount := intValue(rec.Values[trueCountName(f)])
		responses := intValue(rec.Values[responseName(string(f))])

		row.TrueCounts[string(f)] = trueCount
		row.Responses[string(f)] = responses
		row.Fractions[string(f)] = fraction(trueCount, responses)
	}

	return row
}

func intValue(v *float64) int {
	if v == nil {
		return 0
	}

	return int(*v)
}
