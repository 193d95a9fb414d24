package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"github.com/jmoiron/sqlx"
)

type ProblemService interface {
	Create(ctx context.Context, p *domain.Problem) (*domain.Problem, error)
}

type ProblemServiceImpl struct {
	BaseService
	problems      repository.ProblemRepository
	organisations repository.OrganisationRepository
}

func NewProblemService(
	db Transactor,
	log *slog.Logger,
	problems repository.ProblemRepository,
	organisations repository.OrganisationRepository,
) *ProblemServiceImpl {
	return &ProblemServiceImpl{
		BaseService:   NewBaseService(db, log),
		problems:      problems,
		organisations: organisations,
	}
}

// Create stores a public submission. The problem starts unmoderated at version 1.
func (s *ProblemServiceImpl) Create(ctx context.Context, p *domain.Problem) (*domain.Problem, error) {
	const op = "internal.service.problem.Create"
	log := s.log.With(slog.String("op", op), slog.Int64("organisation_id", p.OrganisationID))

	if err := p.PrepareForCreate(s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if p.ServiceID != nil {
			if err := s.checkService(ctx, tx, p); err != nil {
				return err
			}
		}

		id, err := s.problems.Create(ctx, tx, p)
		if err != nil {
			return err
		}

		p.ID = id

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("problem created", slog.Int64("issue_id", p.ID), slog.String("category", string(p.Category)))

	return p, nil
}

func (s *ProblemServiceImpl) checkService(ctx context.Context, tx *sqlx.Tx, p *domain.Problem) error {
	svc, err := s.organisations.GetService(ctx, tx, *p.ServiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, domain.ErrServiceOrganisation)
		}

		return err
	}

	if err := p.CheckService(svc); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	return nil
}
