// Package aggregation computes per-organisation interval counts over problems
// and reviews. A Request is validated and turned into a Plan, a Store runs the
// plan and the Engine derives fractions, sorts and applies the threshold.
package aggregation

import (
	"fmt"
	"slices"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/domain"
)

type DataType string

const (
	Issues  DataType = "issues"
	Reviews DataType = "reviews"
)

type Interval string

const (
	Week          Interval = "week"
	FourWeeks     Interval = "four_weeks"
	SixMonths     Interval = "six_months"
	AllTime       Interval = "all_time"
	AllTimeOpen   Interval = "all_time_open"
	AllTimeClosed Interval = "all_time_closed"
)

type AverageField string

const (
	TimeToAcknowledge AverageField = "time_to_acknowledge"
	TimeToAddress     AverageField = "time_to_address"
)

type BooleanField string

const (
	HappyService BooleanField = "happy_service"
	HappyOutcome BooleanField = "happy_outcome"
)

type ExtraData string

const (
	Coords                      ExtraData = "coords"
	Type                        ExtraData = "type"
	AverageRecommendationRating ExtraData = "average_recommendation_rating"
)

var (
	knownIntervals     = []Interval{Week, FourWeeks, SixMonths, AllTime, AllTimeOpen, AllTimeClosed}
	knownAverageFields = []AverageField{TimeToAcknowledge, TimeToAddress}
	knownBooleanFields = []BooleanField{HappyService, HappyOutcome}
	knownExtraData     = []ExtraData{Coords, Type, AverageRecommendationRating}

	defaultIntervals     = []Interval{Week, FourWeeks, SixMonths, AllTime}
	defaultAverageFields = []AverageField{TimeToAcknowledge, TimeToAddress}
	defaultBooleanFields = []BooleanField{HappyService, HappyOutcome}
)

// IssueFilters restrict the fact rows. Every set filter is combined with AND,
// the values inside one filter with OR. A single-element slice is an equality.
type IssueFilters struct {
	Statuses            []domain.Status
	ServiceIDs          []int64
	ServiceCodes        []string
	Categories          []domain.Category
	PublicationStatuses []domain.PublicationStatus
	Breach              *bool
	FormalComplaint     *bool
}

func (f IssueFilters) empty() bool {
	return f.Statuses == nil && f.ServiceIDs == nil && f.ServiceCodes == nil &&
		f.Categories == nil && f.PublicationStatuses == nil &&
		f.Breach == nil && f.FormalComplaint == nil
}

// OrganisationFilters restrict the organisations rows are produced for.
// OrganisationIDs distinguishes nil (no filter) from an empty slice, which is
// rejected.
type OrganisationFilters struct {
	OrganisationID    *int64
	OrganisationIDs   []int64
	OrganisationTypes []string
	CCGs              []int64
}

type Threshold struct {
	Interval Interval
	Min      int
}

// Request describes one aggregation. Nil option slices take the defaults,
// an empty non-nil slice asks for nothing.
type Request struct {
	DataType      DataType
	Issues        IssueFilters
	Organisations OrganisationFilters
	Threshold     *Threshold
	Intervals     []Interval
	AverageFields []AverageField
	BooleanFields []BooleanField
	Extra         []ExtraData
}

// Single reports whether the request targets exactly one organisation.
func (r Request) Single() bool {
	return r.Organisations.OrganisationID != nil
}

// Normalize validates the request and returns a copy with defaults applied.
func (r Request) Normalize() (Request, error) {
	if r.DataType == "" {
		r.DataType = Issues
	}

	if r.DataType != Issues && r.DataType != Reviews {
		return r, &apperrors.InvalidArgumentError{Argument: "data type", Value: string(r.DataType)}
	}

	if r.Organisations.OrganisationIDs != nil && len(r.Organisations.OrganisationIDs) == 0 {
		return r, &apperrors.InvalidFilterError{Filter: "organisation_ids", Reason: "must not be empty"}
	}

	if r.Single() {
		if r.Organisations.CCGs != nil || r.Organisations.OrganisationTypes != nil {
			return r, &apperrors.NotSupportedError{Reason: "ccg or organisation type filter with a single organisation"}
		}

		if r.Threshold != nil {
			return r, &apperrors.NotSupportedError{Reason: "threshold with a single organisation"}
		}
	}

	if r.Intervals == nil {
		r.Intervals = defaultIntervals
	}

	if r.AverageFields == nil {
		r.AverageFields = defaultAverageFields
		if r.DataType == Reviews {
			r.AverageFields = []AverageField{}
		}
	}

	if r.BooleanFields == nil {
		r.BooleanFields = defaultBooleanFields
		if r.DataType == Reviews {
			r.BooleanFields = []BooleanField{}
		}
	}

	if err := checkKnown("interval", r.Intervals, knownIntervals); err != nil {
		return r, err
	}

	if err := checkKnown("average field", r.AverageFields, knownAverageFields); err != nil {
		return r, err
	}

	if err := checkKnown("boolean field", r.BooleanFields, knownBooleanFields); err != nil {
		return r, err
	}

	if err := checkKnown("extra data", r.Extra, knownExtraData); err != nil {
		return r, err
	}

	if r.DataType == Reviews {
		if err := r.checkReviews(); err != nil {
			return r, err
		}
	}

	if r.Threshold != nil && !slices.Contains(r.Intervals, r.Threshold.Interval) {
		return r, &apperrors.InvalidFilterError{
			Filter: "threshold",
			Reason: fmt.Sprintf("interval '%s' is not among the requested intervals", r.Threshold.Interval),
		}
	}

	return r, nil
}

func (r Request) checkReviews() error {
	if slices.Contains(r.Intervals, AllTimeOpen) || slices.Contains(r.Intervals, AllTimeClosed) {
		return &apperrors.NotSupportedError{Reason: "open or closed intervals for reviews"}
	}

	if len(r.AverageFields) > 0 || len(r.BooleanFields) > 0 {
		return &apperrors.NotSupportedError{Reason: "averages or boolean fields for reviews"}
	}

	if !r.Issues.empty() {
		return &apperrors.NotSupportedError{Reason: "issue filters for reviews"}
	}

	return nil
}

func checkKnown[T ~string](argument string, values, known []T) error {
	for _, v := range values {
		if !slices.Contains(known, v) {
			return &apperrors.InvalidArgumentError{Argument: argument, Value: string(v)}
		}
	}

	return nil
}
