package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"github.com/jmoiron/sqlx"
)

var ErrEmptyResponse = errors.New("a response or a change to the problem is required")

// Reply is a provider's submission on a problem. Nil fields leave the problem as it is.
type Reply struct {
	Response        string
	Status          *domain.Status
	FormalComplaint *bool
}

type ResponseForm struct {
	Problem   *domain.Problem          `json:"-"`
	Responses []domain.ProblemResponse `json:"responses"`
}

type ResponseService interface {
	Load(ctx context.Context, sessionID string, issueID int64) (*ResponseForm, error)
	Respond(ctx context.Context, sessionID string, issueID int64, reply Reply) (*domain.Problem, error)
}

type ResponseServiceImpl struct {
	BaseService
	problems  repository.ProblemRepository
	responses repository.ResponseRepository
	sessions  concurrency.Store
	reader    sqlx.ExtContext
}

func NewResponseService(
	db *sqlx.DB,
	log *slog.Logger,
	problems repository.ProblemRepository,
	responses repository.ResponseRepository,
	sessions concurrency.Store,
) *ResponseServiceImpl {
	return &ResponseServiceImpl{
		BaseService: NewBaseService(db, log),
		problems:    problems,
		responses:   responses,
		sessions:    sessions,
		reader:      db,
	}
}

func (s *ResponseServiceImpl) Load(ctx context.Context, sessionID string, issueID int64) (*ResponseForm, error) {
	const op = "internal.service.response.Load"

	p, err := s.loadForEdit(ctx, op, s.reader, s.problems, s.sessions, sessionID, issueID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responses.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ResponseForm{Problem: p, Responses: responses}, nil
}

// Respond stores the response text, if any, and applies status and formal
// complaint changes under the version check. A reply that leaves the problem
// untouched clears the remembered version instead.
func (s *ResponseServiceImpl) Respond(ctx context.Context, sessionID string, issueID int64, reply Reply) (*domain.Problem, error) {
	const op = "internal.service.response.Respond"
	log := s.log.With(slog.String("op", op), slog.Int64("issue_id", issueID))

	text := strings.TrimSpace(reply.Response)
	now := s.now().UTC()

	var problem *domain.Problem

	err := s.editSession(ctx, op, s.sessions, sessionID, func(session *concurrency.Session) error {
		return s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			p, err := s.problems.GetByID(ctx, tx, issueID)
			if err != nil {
				return err
			}

			current := p.Version
			touched := false

			if reply.Status != nil && *reply.Status != p.Status {
				if err := p.SetStatus(*reply.Status, now); err != nil {
					return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
				}
				touched = true
			}

			if reply.FormalComplaint != nil && *reply.FormalComplaint != p.FormalComplaint {
				p.FormalComplaint = *reply.FormalComplaint
				touched = true
			}

			if !touched && text == "" {
				return fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrEmptyResponse)
			}

			if touched {
				p.Version, err = writeChecked(ctx, tx, s.problems, session, p, current)
				if err != nil {
					return err
				}
			} else {
				session.Forget(issueID)
			}

			if text != "" {
				_, err := s.responses.Create(ctx, tx, &domain.ProblemResponse{
					IssueID:   issueID,
					Response:  text,
					CreatedAt: now,
				})
				if err != nil {
					return err
				}
			}

			problem = p

			return nil
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleVersion) {
			log.Info("rejected stale response")
		}

		return nil, err
	}

	log.Info("response recorded",
		slog.String("status", problem.Status.String()),
		slog.Int("version", problem.Version),
		slog.Bool("with_text", text != ""),
	)

	return problem, nil
}
