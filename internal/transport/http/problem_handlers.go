package http

import (
	"net/http"

	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/service"
)

type responseFormView struct {
	Problem   problemView              `json:"problem"`
	Responses []domain.ProblemResponse `json:"responses"`
}

func (s *Server) PostProblem(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostProblem"

	var req createProblemRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	p, err := s.problems.Create(r.Context(), req.problem())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]problemView{"problem": newProblemView(p)})
}

func (s *Server) GetModerate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetModerate"

	issueID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	p, err := s.moderation.Load(r.Context(), getSessionID(r.Context()), issueID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]problemView{"problem": newProblemView(p)})
}

func (s *Server) PostModerate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostModerate"

	issueID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req moderateRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	// validated above
	publication, _ := domain.ParsePublicationStatus(req.PublicationStatus)

	p, err := s.moderation.Moderate(r.Context(), getSessionID(r.Context()), issueID, service.Moderation{
		PublicationStatus:            publication,
		Category:                     domain.Category(req.Category),
		PublicReporterName:           req.PublicReporterName,
		ModeratedDescription:         req.ModeratedDescription,
		Breach:                       req.Breach,
		RequiresSecondTierModeration: req.RequiresSecondTierModeration,
		Commissioned:                 parseCommissioned(req.Commissioned),
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]problemView{"problem": newProblemView(p)})
}

func (s *Server) GetRespond(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetRespond"

	issueID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	form, err := s.responses.Load(r.Context(), getSessionID(r.Context()), issueID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, responseFormView{
		Problem:   newProblemView(form.Problem),
		Responses: form.Responses,
	})
}

func (s *Server) PostRespond(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostRespond"

	issueID, err := pathID(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req respondRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reply := service.Reply{
		Response:        req.Response,
		FormalComplaint: req.FormalComplaint,
	}

	if req.Status != "" {
		status, _ := domain.ParseStatus(req.Status)
		reply.Status = &status
	}

	p, err := s.responses.Respond(r.Context(), getSessionID(r.Context()), issueID, reply)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]problemView{"problem": newProblemView(p)})
}
