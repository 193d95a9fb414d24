package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"github.com/jmoiron/sqlx"
)

// Moderation is what a moderator can change on a problem.
type Moderation struct {
	PublicationStatus            domain.PublicationStatus
	Category                     domain.Category
	PublicReporterName           bool
	ModeratedDescription         string
	Breach                       bool
	RequiresSecondTierModeration bool
	Commissioned                 *domain.Commissioned
}

type ModerationService interface {
	Load(ctx context.Context, sessionID string, issueID int64) (*domain.Problem, error)
	Moderate(ctx context.Context, sessionID string, issueID int64, m Moderation) (*domain.Problem, error)
}

type ModerationServiceImpl struct {
	BaseService
	problems repository.ProblemRepository
	sessions concurrency.Store
	reader   sqlx.ExtContext
}

func NewModerationService(
	db *sqlx.DB,
	log *slog.Logger,
	problems repository.ProblemRepository,
	sessions concurrency.Store,
) *ModerationServiceImpl {
	return &ModerationServiceImpl{
		BaseService: NewBaseService(db, log),
		problems:    problems,
		sessions:    sessions,
		reader:      db,
	}
}

// Load returns the problem for the moderation form and remembers its version
// in the edit session.
func (s *ModerationServiceImpl) Load(ctx context.Context, sessionID string, issueID int64) (*domain.Problem, error) {
	const op = "internal.service.moderation.Load"

	return s.loadForEdit(ctx, op, s.reader, s.problems, s.sessions, sessionID, issueID)
}

func (s *ModerationServiceImpl) Moderate(ctx context.Context, sessionID string, issueID int64, m Moderation) (*domain.Problem, error) {
	const op = "internal.service.moderation.Moderate"
	log := s.log.With(slog.String("op", op), slog.Int64("issue_id", issueID))

	var moderated *domain.Problem

	err := s.editSession(ctx, op, s.sessions, sessionID, func(session *concurrency.Session) error {
		return s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			p, err := s.problems.GetByID(ctx, tx, issueID)
			if err != nil {
				return err
			}

			current := p.Version

			p.PublicationStatus = m.PublicationStatus
			p.Category = m.Category
			p.PublicReporterName = m.PublicReporterName
			p.ModeratedDescription = m.ModeratedDescription
			p.Breach = m.Breach
			p.RequiresSecondTierModeration = m.RequiresSecondTierModeration
			p.Commissioned = m.Commissioned

			if err := p.CheckModeration(); err != nil {
				return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
			}

			p.Version, err = writeChecked(ctx, tx, s.problems, session, p, current)
			if err != nil {
				return err
			}

			moderated = p

			return nil
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleVersion) {
			log.Info("rejected stale moderation")
		}

		return nil, err
	}

	log.Info("problem moderated",
		slog.Int("version", moderated.Version),
		slog.String("publication_status", moderated.PublicationStatus.String()),
	)

	return moderated, nil
}

// writeChecked checks the session against current, the version read in tx,
// and then writes p on condition that the stored version is still current.
// A write that loses the race after the check passed re-syncs the session
// the same way a failed check does.
func writeChecked(
	ctx context.Context,
	tx *sqlx.Tx,
	problems repository.ProblemRepository,
	session *concurrency.Session,
	p *domain.Problem,
	current int,
) (int, error) {
	if err := session.CheckAndConsume(p.ID, current); err != nil {
		return 0, err
	}

	version, err := problems.UpdateWithVersion(ctx, tx, p, current)
	if err == nil {
		return version, nil
	}

	if !errors.Is(err, apperrors.ErrVersionConflict) {
		return 0, err
	}

	fresh, getErr := problems.GetByID(ctx, tx, p.ID)
	if getErr != nil {
		return 0, errors.Join(err, getErr)
	}

	session.BeginEdit(p.ID, fresh.Version)

	return 0, &concurrency.StaleVersionError{IssueID: p.ID, Seen: current, Current: fresh.Version}
}

func (s *BaseService) loadForEdit(
	ctx context.Context,
	op string,
	ext sqlx.ExtContext,
	problems repository.ProblemRepository,
	sessions concurrency.Store,
	sessionID string,
	issueID int64,
) (*domain.Problem, error) {
	var p *domain.Problem

	err := s.editSession(ctx, op, sessions, sessionID, func(session *concurrency.Session) error {
		var err error

		p, err = problems.GetByID(ctx, ext, issueID)
		if err != nil {
			return err
		}

		session.BeginEdit(issueID, p.Version)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("edit loaded", slog.String("op", op), slog.Int64("issue_id", issueID), slog.Int("version", p.Version))

	return p, nil
}
