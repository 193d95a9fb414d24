package service

import (
	"context"
	"testing"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func row(id int64, name string, counts map[string]int) aggregation.Row {
	return aggregation.Row{ID: id, Name: name, Counts: counts}
}

func isReviews(req aggregation.Request) bool { return req.DataType == aggregation.Reviews }
func isIssues(req aggregation.Request) bool  { return req.DataType != aggregation.Reviews }

func TestSummaryServiceImpl_National(t *testing.T) {
	ctx := context.Background()

	problems := aggregation.Result{Rows: []aggregation.Row{
		row(1, "A", map[string]int{"all_time": 3}),
		row(2, "B", map[string]int{"all_time": 0}),
		row(3, "C", map[string]int{"all_time": 1}),
	}}
	reviews := aggregation.Result{Rows: []aggregation.Row{
		row(2, "B", map[string]int{"reviews_all_time": 2}),
		row(3, "C", map[string]int{"reviews_all_time": 1}),
	}}

	testCases := []struct {
		name             string
		filters          Filters
		private          bool
		threshold        config.Summary
		expectedStatuses []domain.Status
		expectedIDs      []int64
	}{
		{
			name:             "public summary sees visible statuses only",
			threshold:        config.Summary{ThresholdInterval: "all_time", ThresholdCount: 2},
			expectedStatuses: domain.VisibleStatuses,
			expectedIDs:      []int64{1, 2},
		},
		{
			name:             "hidden status filter is dropped on public pages",
			filters:          Filters{Statuses: []domain.Status{domain.StatusAbusive, domain.StatusNew}},
			expectedStatuses: []domain.Status{domain.StatusNew},
			expectedIDs:      []int64{1, 2, 3},
		},
		{
			name:             "private summary keeps every status",
			filters:          Filters{Statuses: []domain.Status{domain.StatusAbusive}},
			private:          true,
			expectedStatuses: []domain.Status{domain.StatusAbusive},
			expectedIDs:      []int64{1, 2, 3},
		},
		{
			name:        "private summary without status filter",
			private:     true,
			expectedIDs: []int64{1, 2, 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := new(IntervalCounterMock)
			engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isIssues)).Return(problems, nil)
			engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isReviews)).Return(reviews, nil)

			svc := NewSummaryService(discardLogger(), engine, new(OrganisationRepositoryMock), tc.threshold)

			rows, err := svc.National(ctx, tc.filters, tc.private)
			require.NoError(t, err)

			ids := make([]int64, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tc.expectedIDs, ids)
			assert.Equal(t, 2, rows[1].Count("reviews_all_time"))

			engine.AssertCalled(t, "IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
				return isIssues(req) && assert.ObjectsAreEqual(tc.expectedStatuses, req.Issues.Statuses)
			}))
			engine.AssertCalled(t, "IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
				return isReviews(req) && req.Issues.Statuses == nil
			}))
		})
	}
}

func TestSummaryServiceImpl_NationalEngineError(t *testing.T) {
	engine := new(IntervalCounterMock)
	engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isIssues)).
		Return(aggregation.Result{}, &apperrors.NotSupportedError{Reason: "test"})
	engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isReviews)).Return(aggregation.Result{}, nil)

	svc := NewSummaryService(discardLogger(), engine, new(OrganisationRepositoryMock), config.Summary{})

	_, err := svc.National(context.Background(), Filters{}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotSupported)
}

func TestSummaryServiceImpl_CCG(t *testing.T) {
	engine := new(IntervalCounterMock)
	engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
		return assert.ObjectsAreEqual([]int64{9}, req.Organisations.CCGs)
	})).Return(aggregation.Result{}, nil).Twice()

	svc := NewSummaryService(discardLogger(), engine, new(OrganisationRepositoryMock), config.Summary{})

	rows, err := svc.CCG(context.Background(), 9, Filters{CCGs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Empty(t, rows)
	engine.AssertExpectations(t)
}

func TestSummaryServiceImpl_Organisation(t *testing.T) {
	ctx := context.Background()
	orgs := new(OrganisationRepositoryMock)
	engine := new(IntervalCounterMock)

	orgs.On("GetByID", mock.Anything, int64(4)).Return(&domain.Organisation{ID: 4, Name: "Alpha"}, nil)

	single := func(req aggregation.Request) bool {
		return req.Organisations.OrganisationID != nil && *req.Organisations.OrganisationID == 4
	}
	engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(single)).
		Return(aggregation.Result{Rows: []aggregation.Row{row(4, "Alpha", map[string]int{"week": 1})}, Single: true}, nil)

	svc := NewSummaryService(discardLogger(), engine, orgs, config.Summary{})

	dashboard, err := svc.Organisation(ctx, 4, Filters{Statuses: []domain.Status{domain.StatusNew}})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", dashboard.Organisation.Name)
	assert.Equal(t, 1, dashboard.Total.Count("week"))
	require.Len(t, dashboard.ByStatus, len(domain.AllStatuses))

	for i, s := range domain.AllStatuses {
		assert.Equal(t, s, dashboard.ByStatus[i].Status)
	}

	engine.AssertNumberOfCalls(t, "IntervalCounts", 3+len(domain.AllStatuses))
	engine.AssertCalled(t, "IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
		return single(req) && isIssues(req) && req.Issues.Statuses == nil
	}))
}

func TestSummaryServiceImpl_OrganisationNotFound(t *testing.T) {
	orgs := new(OrganisationRepositoryMock)
	orgs.On("GetByID", mock.Anything, int64(4)).Return(nil, apperrors.ErrNotFound)

	engine := new(IntervalCounterMock)
	svc := NewSummaryService(discardLogger(), engine, orgs, config.Summary{})

	_, err := svc.Organisation(context.Background(), 4, Filters{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	engine.AssertNotCalled(t, "IntervalCounts", mock.Anything, mock.Anything)
}

func TestSummaryServiceImpl_Parent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: rows and totals", func(t *testing.T) {
		orgs := new(OrganisationRepositoryMock)
		engine := new(IntervalCounterMock)

		orgs.On("IDsByParent", mock.Anything, int64(2)).Return([]int64{1, 3}, nil)
		engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isIssues)).Return(aggregation.Result{Rows: []aggregation.Row{
			row(1, "A", map[string]int{"week": 2}),
			row(3, "C", map[string]int{"week": 5}),
		}}, nil)
		engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isReviews)).Return(aggregation.Result{}, nil)

		svc := NewSummaryService(discardLogger(), engine, orgs, config.Summary{})

		dashboard, err := svc.Parent(ctx, 2, Filters{})
		require.NoError(t, err)
		assert.Len(t, dashboard.Rows, 2)
		assert.Equal(t, 7, dashboard.Totals.Count("week"))

		engine.AssertCalled(t, "IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
			return assert.ObjectsAreEqual([]int64{1, 3}, req.Organisations.OrganisationIDs)
		}))
	})

	t.Run("Failure: parent without organisations", func(t *testing.T) {
		orgs := new(OrganisationRepositoryMock)
		orgs.On("IDsByParent", mock.Anything, int64(2)).Return([]int64{}, nil)

		svc := NewSummaryService(discardLogger(), new(IntervalCounterMock), orgs, config.Summary{})

		_, err := svc.Parent(ctx, 2, Filters{})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestSummaryServiceImpl_Map(t *testing.T) {
	ctx := context.Background()
	bounds := domain.Bounds{South: 51, West: -1, North: 52, East: 1}

	t.Run("empty area", func(t *testing.T) {
		orgs := new(OrganisationRepositoryMock)
		orgs.On("WithinBounds", mock.Anything, bounds).Return([]int64{}, nil)

		engine := new(IntervalCounterMock)
		svc := NewSummaryService(discardLogger(), engine, orgs, config.Summary{})

		rows, err := svc.Map(ctx, bounds, Filters{})
		require.NoError(t, err)
		assert.Empty(t, rows)
		engine.AssertNotCalled(t, "IntervalCounts", mock.Anything, mock.Anything)
	})

	t.Run("map metrics", func(t *testing.T) {
		orgs := new(OrganisationRepositoryMock)
		orgs.On("WithinBounds", mock.Anything, bounds).Return([]int64{5}, nil)

		engine := new(IntervalCounterMock)
		engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(func(req aggregation.Request) bool {
			return isIssues(req) &&
				assert.ObjectsAreEqual([]aggregation.Interval{aggregation.AllTimeOpen, aggregation.AllTimeClosed}, req.Intervals) &&
				len(req.Extra) == 3
		})).Return(aggregation.Result{Rows: []aggregation.Row{row(5, "E", map[string]int{"all_time_open": 1})}}, nil)
		engine.On("IntervalCounts", mock.Anything, mock.MatchedBy(isReviews)).
			Return(aggregation.Result{Rows: []aggregation.Row{row(5, "E", map[string]int{"reviews_all_time": 4})}}, nil)

		svc := NewSummaryService(discardLogger(), engine, orgs, config.Summary{})

		rows, err := svc.Map(ctx, bounds, Filters{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Count("all_time_open"))
		assert.Equal(t, 4, rows[0].Count("reviews_all_time"))
		engine.AssertExpectations(t)
	})
}
