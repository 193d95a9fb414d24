package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/service"
	"github.com/YusovID/citizen-connect/pkg/logger/sl"
)

type organisationSummaryResponse struct {
	Organisation organisationView `json:"organisation"`
	*service.OrganisationDashboard
}

type organisationView struct {
	ID      int64  `json:"id"`
	ODSCode string `json:"ods_code"`
	Name    string `json:"name"`
	Type    string `json:"organisation_type"`
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetSummary"
	s.national(w, r, op, false)
}

func (s *Server) GetPrivateSummary(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetPrivateSummary"
	s.national(w, r, op, true)
}

func (s *Server) national(w http.ResponseWriter, r *http.Request, op string, private bool) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rows, err := s.summaries.National(r.Context(), filters, private)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]aggregation.Row{"rows": rows})
}

func (s *Server) GetSummaryCSV(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetSummaryCSV"

	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rows, err := s.summaries.National(r.Context(), filters, false)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := aggregation.WriteCSV(w, rows); err != nil {
		s.log.Error("failed to write csv", sl.Err(err))
	}
}

func (s *Server) GetCCGSummary(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetCCGSummary"

	ccgID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rows, err := s.summaries.CCG(r.Context(), ccgID, filters)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]aggregation.Row{"rows": rows})
}

func (s *Server) GetOrganisationSummary(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetOrganisationSummary"

	orgID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	dashboard, err := s.summaries.Organisation(r.Context(), orgID, filters)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	org := dashboard.Organisation

	s.respond(w, http.StatusOK, organisationSummaryResponse{
		Organisation: organisationView{
			ID:      org.ID,
			ODSCode: org.ODSCode,
			Name:    org.Name,
			Type:    org.OrganisationType,
		},
		OrganisationDashboard: dashboard,
	})
}

func (s *Server) GetParentDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetParentDashboard"

	parentID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	dashboard, err := s.summaries.Parent(r.Context(), parentID, filters)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, dashboard)
}

func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetMap"

	query := r.URL.Query()

	bounds, err := parseBounds(query.Get("bounds"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	filters, err := parseFilters(query)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rows, err := s.summaries.Map(r.Context(), bounds, filters)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]aggregation.Row{"rows": rows})
}

// listParam collects a query parameter given either repeated or comma separated.
// It returns nil when the parameter is absent.
func listParam(q url.Values, name string) []string {
	raw, ok := q[name]
	if !ok {
		return nil
	}

	values := []string{}

	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}

	return values
}

func parseFilters(q url.Values) (service.Filters, error) {
	var f service.Filters

	if raw := listParam(q, "status"); raw != nil {
		f.Statuses = make([]domain.Status, 0, len(raw))

		for _, v := range raw {
			status, err := domain.ParseStatus(v)
			if err != nil {
				return f, &apperrors.InvalidArgumentError{Argument: "status", Value: v}
			}
			f.Statuses = append(f.Statuses, status)
		}
	}

	if raw := listParam(q, "category"); raw != nil {
		f.Categories = make([]domain.Category, 0, len(raw))

		for _, v := range raw {
			c := domain.Category(v)
			if !c.Valid() {
				return f, &apperrors.InvalidArgumentError{Argument: "category", Value: v}
			}
			f.Categories = append(f.Categories, c)
		}
	}

	var err error

	if f.ServiceIDs, err = int64List(q, "service_id"); err != nil {
		return f, err
	}

	if f.CCGs, err = int64List(q, "ccg"); err != nil {
		return f, err
	}

	f.ServiceCodes = listParam(q, "service_code")
	f.OrganisationTypes = listParam(q, "organisation_type")

	if f.Breach, err = boolParam(q, "breach"); err != nil {
		return f, err
	}

	if f.FormalComplaint, err = boolParam(q, "formal_complaint"); err != nil {
		return f, err
	}

	return f, nil
}

func int64List(q url.Values, name string) ([]int64, error) {
	raw := listParam(q, name)
	if raw == nil {
		return nil, nil
	}

	ids := make([]int64, 0, len(raw))

	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &apperrors.InvalidArgumentError{Argument: name, Value: v}
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	if !q.Has(name) {
		return nil, nil
	}

	v, err := strconv.ParseBool(q.Get(name))
	if err != nil {
		return nil, &apperrors.InvalidArgumentError{Argument: name, Value: q.Get(name)}
	}

	return &v, nil
}

// parseBounds reads "south,west,north,east".
func parseBounds(raw string) (domain.Bounds, error) {
	invalid := &apperrors.InvalidArgumentError{Argument: "bounds", Value: raw}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return domain.Bounds{}, invalid
	}

	var coords [4]float64

	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, invalid
		}
		coords[i] = v
	}

	b := domain.Bounds{South: coords[0], West: coords[1], North: coords[2], East: coords[3]}
	if b.South > b.North || b.West > b.East {
		return domain.Bounds{}, invalid
	}

	return b, nil
}
