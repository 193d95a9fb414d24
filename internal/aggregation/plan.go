package aggregation

import (
	"time"

	"github.com/YusovID/citizen-connect/internal/domain"
)

// Field names a filterable attribute of a fact row or an organisation.
type Field string

const (
	FieldStatus            Field = "status"
	FieldServiceID         Field = "service_id"
	FieldServiceCode       Field = "service_code"
	FieldCategory          Field = "category"
	FieldPublicationStatus Field = "publication_status"
	FieldBreach            Field = "breach"
	FieldFormalComplaint   Field = "formal_complaint"
	FieldInReplyTo         Field = "in_reply_to_id"

	FieldOrganisationID   Field = "id"
	FieldOrganisationType Field = "organisation_type"
	FieldCCG              Field = "ccg"
)

type Op int

const (
	OpIn Op = iota
	OpIsNull
)

// Predicate is one conjunct of a filter: Field IN Values, or Field IS NULL.
type Predicate struct {
	Field  Field
	Op     Op
	Values []any
}

type MetricKind int

const (
	// MetricCount counts fact rows, optionally newer than Since and
	// restricted to Statuses.
	MetricCount MetricKind = iota
	MetricAverage
	MetricTrueCount
	MetricNonNullCount
)

type Metric struct {
	Name     string
	Kind     MetricKind
	Column   string
	Since    *time.Time
	Statuses []domain.Status
}

// Plan is the store independent description of one grouped aggregation:
// organisations matching OrganisationPredicates, left joined with the fact
// rows matching FactPredicates, one value per Metric and organisation.
type Plan struct {
	DataType               DataType
	FactPredicates         []Predicate
	OrganisationPredicates []Predicate
	Metrics                []Metric
	Extra                  []ExtraData
}

func (p *Plan) FactTable() string {
	if p.DataType == Reviews {
		return "reviews"
	}

	return "problems"
}

func (p *Plan) DateColumn() string {
	if p.DataType == Reviews {
		return "published_date"
	}

	return "created"
}

const sixMonthsDays = 365 * 6 / 12

var intervalDays = map[Interval]int{
	Week:      7,
	FourWeeks: 28,
	SixMonths: sixMonthsDays,
}

// MetricName is the output key of an interval count. Review counts are
// prefixed so they can sit next to problem counts in a merged row.
func MetricName(dt DataType, interval Interval) string {
	if dt == Reviews {
		return "reviews_" + string(interval)
	}

	return string(interval)
}

func averageName(f AverageField) string   { return "average_" + string(f) }
func trueCountName(f BooleanField) string { return string(f) + "_true" }
func responseName(column string) string   { return column + "_count" }

// NewPlan builds the plan for a normalized request. Interval cutoffs are
// computed from now.
func NewPlan(req Request, now time.Time) *Plan {
	plan := &Plan{
		DataType: req.DataType,
		Extra:    req.Extra,
	}

	plan.FactPredicates = factPredicates(req)
	plan.OrganisationPredicates = organisationPredicates(req.Organisations)

	for _, interval := range req.Intervals {
		m := Metric{Name: MetricName(req.DataType, interval), Kind: MetricCount}

		switch interval {
		case Week, FourWeeks, SixMonths:
			since := now.AddDate(0, 0, -intervalDays[interval])
			m.Since = &since
		case AllTimeOpen:
			m.Statuses = domain.OpenStatuses
		case AllTimeClosed:
			m.Statuses = domain.ClosedStatuses
		}

		plan.Metrics = append(plan.Metrics, m)
	}

	for _, f := range req.AverageFields {
		plan.Metrics = append(plan.Metrics,
			Metric{Name: averageName(f), Kind: MetricAverage, Column: string(f)},
			Metric{Name: responseName(string(f)), Kind: MetricNonNullCount, Column: string(f)},
		)
	}

	for _, f := range req.BooleanFields {
		plan.Metrics = append(plan.Metrics,
			Metric{Name: trueCountName(f), Kind: MetricTrueCount, Column: string(f)},
			Metric{Name: responseName(string(f)), Kind: MetricNonNullCount, Column: string(f)},
		)
	}

	return plan
}

func factPredicates(req Request) []Predicate {
	var preds []Predicate

	if req.DataType == Reviews {
		return append(preds, Predicate{Field: FieldInReplyTo, Op: OpIsNull})
	}

	f := req.Issues

	if f.Statuses != nil {
		preds = append(preds, in(FieldStatus, f.Statuses))
	}

	if f.ServiceIDs != nil {
		preds = append(preds, in(FieldServiceID, f.ServiceIDs))
	}

	if f.ServiceCodes != nil {
		preds = append(preds, in(FieldServiceCode, f.ServiceCodes))
	}

	if f.Categories != nil {
		preds = append(preds, in(FieldCategory, f.Categories))
	}

	if f.PublicationStatuses != nil {
		preds = append(preds, in(FieldPublicationStatus, f.PublicationStatuses))
	}

	if f.Breach != nil {
		preds = append(preds, in(FieldBreach, []bool{*f.Breach}))
	}

	if f.FormalComplaint != nil {
		preds = append(preds, in(FieldFormalComplaint, []bool{*f.FormalComplaint}))
	}

	return preds
}

func organisationPredicates(f OrganisationFilters) []Predicate {
	var preds []Predicate

	if f.OrganisationID != nil {
		preds = append(preds, in(FieldOrganisationID, []int64{*f.OrganisationID}))
	}

	if f.OrganisationIDs != nil {
		preds = append(preds, in(FieldOrganisationID, f.OrganisationIDs))
	}

	if f.OrganisationTypes != nil {
		preds = append(preds, in(FieldOrganisationType, f.OrganisationTypes))
	}

	if f.CCGs != nil {
		preds = append(preds, in(FieldCCG, f.CCGs))
	}

	return preds
}

func in[T any](field Field, values []T) Predicate {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}

	return Predicate{Field: field, Op: OpIn, Values: vs}
}
