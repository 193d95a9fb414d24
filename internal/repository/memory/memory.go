// Package memory provides an in-memory record store. It runs aggregation
// plans by filtering plain Go values and keeps edit sessions in a map. It backs
// tests and the memory session store option.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/internal/domain"
)

type state struct {
	organisations map[int64]domain.Organisation
	services      map[int64]domain.Service
	problems      map[int64]domain.Problem
	reviews       map[int64]domain.Review
	parentCCGs    map[int64][]int64
	sessions      map[string]map[int64]int
}

type Store struct {
	mu    sync.RWMutex
	state state
}

var (
	_ aggregation.Store = (*Store)(nil)
	_ concurrency.Store = (*Store)(nil)
)

func New() *Store {
	return &Store{
		state: state{
			organisations: map[int64]domain.Organisation{},
			services:      map[int64]domain.Service{},
			problems:      map[int64]domain.Problem{},
			reviews:       map[int64]domain.Review{},
			parentCCGs:    map[int64][]int64{},
			sessions:      map[string]map[int64]int{},
		},
	}
}

func (s *Store) AddOrganisation(org domain.Organisation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.organisations[org.ID] = org
}

func (s *Store) AddService(svc domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.services[svc.ID] = svc
}

func (s *Store) AddProblem(p domain.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.problems[p.ID] = p
}

func (s *Store) AddReview(r domain.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.reviews[r.ID] = r
}

// LinkParentCCG records that the organisation parent is commissioned by ccgID.
func (s *Store) LinkParentCCG(parentID, ccgID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.parentCCGs[parentID] = append(s.state.parentCCGs[parentID], ccgID)
}

func (s *Store) Load(_ context.Context, sessionID string) (*concurrency.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make(map[int64]int, len(s.state.sessions[sessionID]))
	for id, v := range s.state.sessions[sessionID] {
		versions[id] = v
	}

	return concurrency.NewSession(sessionID, versions), nil
}

func (s *Store) Save(_ context.Context, session *concurrency.Session) error {
	changes := session.Changes()
	if len(changes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, ok := s.state.sessions[session.ID]
	if !ok {
		versions = map[int64]int{}
		s.state.sessions[session.ID] = versions
	}

	for _, c := range changes {
		if c.Version == nil {
			delete(versions, c.IssueID)
			continue
		}

		versions[c.IssueID] = *c.Version
	}

	return nil
}

// fact is a problem or review reduced to what a plan can look at.
type fact struct {
	organisationID int64
	date           time.Time
	status         domain.Status
	attrs          map[aggregation.Field]any
	numbers        map[string]*int
	flags          map[string]*bool
}

func (s *Store) Aggregate(ctx context.Context, plan *aggregation.Plan) ([]aggregation.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byOrganisation := map[int64][]fact{}
	for _, f := range s.facts(plan.DataType) {
		if matches(f.attrs, plan.FactPredicates) {
			byOrganisation[f.organisationID] = append(byOrganisation[f.organisationID], f)
		}
	}

	ids := make([]int64, 0, len(s.state.organisations))
	for id := range s.state.organisations {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var records []aggregation.Record

	for _, id := range ids {
		org := s.state.organisations[id]
		if !matches(s.organisationAttrs(org), plan.OrganisationPredicates) {
			continue
		}

		rec := aggregation.Record{
			OrganisationID:   org.ID,
			ODSCode:          org.ODSCode,
			Name:             org.Name,
			OrganisationType: org.OrganisationType,
			Values:           make(map[string]*float64, len(plan.Metrics)),
		}

		if org.Lat.Valid {
			rec.Lat = &org.Lat.Float64
		}

		if org.Lon.Valid {
			rec.Lon = &org.Lon.Float64
		}

		if org.AverageRecommendationRating.Valid {
			rec.AverageRecommendationRating = &org.AverageRecommendationRating.Float64
		}

		for _, m := range plan.Metrics {
			rec.Values[m.Name] = evaluate(m, byOrganisation[org.ID])
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) facts(dt aggregation.DataType) []fact {
	var facts []fact

	if dt == aggregation.Reviews {
		for _, r := range s.state.reviews {
			var inReplyTo any
			if r.InReplyToID.Valid {
				inReplyTo = r.InReplyToID.Int64
			}

			facts = append(facts, fact{
				organisationID: r.OrganisationID,
				date:           r.PublishedDate,
				attrs:          map[aggregation.Field]any{aggregation.FieldInReplyTo: inReplyTo},
			})
		}

		return facts
	}

	for _, p := range s.state.problems {
		var serviceID, serviceCode any
		if p.ServiceID != nil {
			serviceID = *p.ServiceID
			if svc, ok := s.state.services[*p.ServiceID]; ok {
				serviceCode = svc.ServiceCode
			}
		}

		facts = append(facts, fact{
			organisationID: p.OrganisationID,
			date:           p.Created,
			status:         p.Status,
			attrs: map[aggregation.Field]any{
				aggregation.FieldStatus:            p.Status,
				aggregation.FieldServiceID:         serviceID,
				aggregation.FieldServiceCode:       serviceCode,
				aggregation.FieldCategory:          p.Category,
				aggregation.FieldPublicationStatus: p.PublicationStatus,
				aggregation.FieldBreach:            p.Breach,
				aggregation.FieldFormalComplaint:   p.FormalComplaint,
			},
			numbers: map[string]*int{
				string(aggregation.TimeToAcknowledge): p.TimeToAcknowledge,
				string(aggregation.TimeToAddress):     p.TimeToAddress,
			},
			flags: map[string]*bool{
				string(aggregation.HappyService): p.HappyService,
				string(aggregation.HappyOutcome): p.HappyOutcome,
			},
		})
	}

	return facts
}

func (s *Store) organisationAttrs(org domain.Organisation) map[aggregation.Field]any {
	ccgs := make([]any, 0, len(s.state.parentCCGs[org.ParentID]))
	for _, id := range s.state.parentCCGs[org.ParentID] {
		ccgs = append(ccgs, id)
	}

	return map[aggregation.Field]any{
		aggregation.FieldOrganisationID:   org.ID,
		aggregation.FieldOrganisationType: org.OrganisationType,
		aggregation.FieldCCG:              ccgs,
	}
}

// matches reports whether attrs satisfy every predicate. A []any attribute
// matches an IN predicate when any of its elements does.
func matches(attrs map[aggregation.Field]any, preds []aggregation.Predicate) bool {
	for _, p := range preds {
		v := attrs[p.Field]

		switch p.Op {
		case aggregation.OpIsNull:
			if v != nil {
				return false
			}
		case aggregation.OpIn:
			if !in(v, p.Values) {
				return false
			}
		}
	}

	return true
}

func in(v any, values []any) bool {
	if many, ok := v.([]any); ok {
		for _, m := range many {
			if in(m, values) {
				return true
			}
		}

		return false
	}

	if v == nil {
		return false
	}

	for _, want := range values {
		if v == want {
			return true
		}
	}

	return false
}

func evaluate(m aggregation.Metric, facts []fact) *float64 {
	var (
		count int
		sum   int
	)

	for _, f := range facts {
		switch m.Kind {
		case aggregation.MetricCount:
			if m.Since != nil && !f.date.After(*m.Since) {
				continue
			}

			if m.Statuses != nil && !slices.Contains(m.Statuses, f.status) {
				continue
			}

			count++
		case aggregation.MetricAverage:
			if n := f.numbers[m.Column]; n != nil {
				sum += *n
				count++
			}
		case aggregation.MetricTrueCount:
			if b := f.flags[m.Column]; b != nil && *b {
				count++
			}
		case aggregation.MetricNonNullCount:
			if f.numbers[m.Column] != nil || f.flags[m.Column] != nil {
				count++
			}
		}
	}

	var v float64

	if m.Kind == aggregation.MetricAverage {
		if count == 0 {
			return nil
		}

		v = float64(sum) / float64(count)

		return &v
	}

	v = float64(count)

	return &v
}
