package aggregation

import (
	"testing"
	"time"

	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_Cutoffs(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	req, err := Request{}.Normalize()
	require.NoError(t, err)

	plan := NewPlan(req, now)

	since := map[string]time.Time{}
	for _, m := range plan.Metrics {
		if m.Since != nil {
			since[m.Name] = *m.Since
		}
	}

	assert.Equal(t, now.AddDate(0, 0, -7), since["week"])
	assert.Equal(t, now.AddDate(0, 0, -28), since["four_weeks"])
	assert.Equal(t, now.AddDate(0, 0, -182), since["six_months"])
	assert.NotContains(t, since, "all_time")

	assert.Equal(t, "problems", plan.FactTable())
	assert.Equal(t, "created", plan.DateColumn())
	assert.Empty(t, plan.FactPredicates)
	assert.Empty(t, plan.OrganisationPredicates)
}

func TestNewPlan_Predicates(t *testing.T) {
	breach := true
	orgID := int64(4)

	req, err := Request{
		Issues: IssueFilters{
			Statuses:     []domain.Status{domain.StatusNew},
			ServiceCodes: []string{"SRV0001"},
			Breach:       &breach,
		},
		Organisations: OrganisationFilters{OrganisationID: &orgID},
		Intervals:     []Interval{AllTimeOpen},
		AverageFields: []AverageField{},
		BooleanFields: []BooleanField{HappyOutcome},
	}.Normalize()
	require.NoError(t, err)

	plan := NewPlan(req, time.Now())

	assert.Equal(t, []Predicate{
		{Field: FieldStatus, Op: OpIn, Values: []any{domain.StatusNew}},
		{Field: FieldServiceCode, Op: OpIn, Values: []any{"SRV0001"}},
		{Field: FieldBreach, Op: OpIn, Values: []any{true}},
	}, plan.FactPredicates)

	assert.Equal(t, []Predicate{
		{Field: FieldOrganisationID, Op: OpIn, Values: []any{int64(4)}},
	}, plan.OrganisationPredicates)

	assert.Equal(t, []Metric{
		{Name: "all_time_open", Kind: MetricCount, Statuses: domain.OpenStatuses},
		{Name: "happy_outcome_true", Kind: MetricTrueCount, Column: "happy_outcome"},
		{Name: "happy_outcome_count", Kind: MetricNonNullCount, Column: "happy_outcome"},
	}, plan.Metrics)
}

func TestNewPlan_Reviews(t *testing.T) {
	req, err := Request{DataType: Reviews, Intervals: []Interval{Week}}.Normalize()
	require.NoError(t, err)

	plan := NewPlan(req, time.Now())

	assert.Equal(t, "reviews", plan.FactTable())
	assert.Equal(t, "published_date", plan.DateColumn())
	assert.Equal(t, []Predicate{{Field: FieldInReplyTo, Op: OpIsNull}}, plan.FactPredicates)
	require.Len(t, plan.Metrics, 1)
	assert.Equal(t, "reviews_week", plan.Metrics[0].Name)
}

func TestRequest_NormalizeKeepsEmptySelections(t *testing.T) {
	req, err := Request{Intervals: []Interval{}, AverageFields: []AverageField{}}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, Issues, req.DataType)
	assert.Empty(t, req.Intervals)
	assert.Empty(t, req.AverageFields)
	assert.Equal(t, defaultBooleanFields, req.BooleanFields)
}

func TestMergeAndSummarise(t *testing.T) {
	avg := func(v float64) *float64 { return &v }

	a := newRow(1, "A01", "A")
	a.Counts["week"] = 2
	a.Averages["average_time_to_address"] = avg(10)
	a.Responses["time_to_address"] = 1
	a.Responses["happy_service"] = 2
	a.TrueCounts["happy_service"] = 1
	a.Fractions["happy_service"] = avg(0.5)

	b := newRow(2, "B01", "A")
	b.Counts["week"] = 3
	b.Averages["average_time_to_address"] = avg(40)
	b.Responses["time_to_address"] = 2
	b.Responses["happy_service"] = 2
	b.TrueCounts["happy_service"] = 2
	b.Fractions["happy_service"] = avg(1)

	reviewsB := newRow(2, "B01", "A")
	reviewsB.Counts["reviews_week"] = 7

	reviewsC := newRow(3, "C01", "C")
	reviewsC.Counts["reviews_week"] = 1

	merged := Merge([]Row{b, a}, []Row{reviewsC, reviewsB})
	require.Len(t, merged, 3)
	assert.Equal(t, int64(1), merged[0].ID)
	assert.Equal(t, int64(2), merged[1].ID)
	assert.Equal(t, 7, merged[1].Count("reviews_week"))
	assert.Equal(t, 0, merged[0].Count("reviews_week"))
	assert.Equal(t, int64(3), merged[2].ID)
	_, ok := b.Counts["reviews_week"]
	assert.False(t, ok, "merge does not modify its inputs")

	total := Summarise([]Row{a, b})
	assert.Equal(t, 5, total.Count("week"))
	require.NotNil(t, total.Averages["average_time_to_address"])
	assert.InDelta(t, 30.0, *total.Averages["average_time_to_address"], 1e-9)
	require.NotNil(t, total.Fractions["happy_service"])
	assert.InDelta(t, 0.75, *total.Fractions["happy_service"], 1e-9)

	empty := Summarise(nil)
	assert.Empty(t, empty.Counts)
}
