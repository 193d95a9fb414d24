package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var problemColumns = []string{
	"id", "organisation_id", "service_id", "created", "status", "priority", "category",
	"publication_status", "public", "public_reporter_name", "public_reporter_name_original",
	"breach", "formal_complaint", "requires_second_tier_moderation", "commissioned",
	"happy_service", "happy_outcome", "time_to_acknowledge", "time_to_address", "resolved",
	"description", "moderated_description", "reporter_name", "reporter_email", "reporter_phone",
	"preferred_contact_method", "version",
}

type ProblemRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

var _ repository.ProblemRepository = (*ProblemRepository)(nil)

func NewProblemRepository(db *sqlx.DB, log *slog.Logger) *ProblemRepository {
	return &ProblemRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProblemRepository) Create(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem) (int64, error) {
	const op = "internal.repository.postgres.CreateProblem"

	query, args, err := r.sq.Insert("problems").
		Columns(problemColumns[1:]...).
		Values(
			p.OrganisationID, p.ServiceID, p.Created, p.Status, p.Priority, p.Category,
			p.PublicationStatus, p.Public, p.PublicReporterName, p.PublicReporterNameOriginal,
			p.Breach, p.FormalComplaint, p.RequiresSecondTierModeration, p.Commissioned,
			p.HappyService, p.HappyOutcome, p.TimeToAcknowledge, p.TimeToAddress, p.Resolved,
			p.Description, p.ModeratedDescription, p.ReporterName, p.ReporterEmail, p.ReporterPhone,
			p.PreferredContactMethod, p.Version,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var id int64
	if err := sqlx.GetContext(ctx, ext, &id, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return 0, fmt.Errorf("%w: organisation %d or its service", apperrors.ErrNotFound, p.OrganisationID)
		}

		return 0, fmt.Errorf("%s: failed to insert problem: %w", op, err)
	}

	return id, nil
}

func (r *ProblemRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Problem, error) {
	const op = "internal.repository.postgres.GetProblemByID"

	query, args, err := r.sq.Select(problemColumns...).
		From("problems").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var p domain.Problem
	if err := sqlx.GetContext(ctx, ext, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: problem with id %d", apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get problem: %w", op, err)
	}

	return &p, nil
}

func (r *ProblemRepository) UpdateWithVersion(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem, expectedVersion int) (int, error) {
	const op = "internal.repository.postgres.UpdateWithVersion"

	query, args, err := r.sq.Update("problems").
		SetMap(map[string]any{
			"status":                          p.Status,
			"priority":                        p.Priority,
			"category":                        p.Category,
			"publication_status":              p.PublicationStatus,
			"public":                          p.Public,
			"public_reporter_name":            p.PublicReporterName,
			"breach":                          p.Breach,
			"formal_complaint":                p.FormalComplaint,
			"requires_second_tier_moderation": p.RequiresSecondTierModeration,
			"commissioned":                    p.Commissioned,
			"happy_service":                   p.HappyService,
			"happy_outcome":                   p.HappyOutcome,
			"time_to_acknowledge":             p.TimeToAcknowledge,
			"time_to_address":                 p.TimeToAddress,
			"resolved":                        p.Resolved,
			"moderated_description":           p.ModeratedDescription,
			"version":                         sq.Expr("version + 1"),
		}).
		Where(sq.Eq{"id": p.ID, "version": expectedVersion}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var version int
	err = sqlx.GetContext(ctx, ext, &version, query, args...)
	if err == nil {
		return version, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: failed to update problem: %w", op, err)
	}

	existsQuery, existsArgs, err := r.sq.Select("version").From("problems").Where(sq.Eq{"id": p.ID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var current int
	if err := sqlx.GetContext(ctx, ext, &current, existsQuery, existsArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: problem with id %d", apperrors.ErrNotFound, p.ID)
		}

		return 0, fmt.Errorf("%s: failed to read problem version: %w", op, err)
	}

	r.log.Info("version moved on",
		slog.String("op", op),
		slog.Int64("issue_id", p.ID),
		slog.Int("expected", expectedVersion),
		slog.Int("current", current),
	)

	return 0, fmt.Errorf("%w: problem %d is at version %d, expected %d",
		apperrors.ErrVersionConflict, p.ID, current, expectedVersion)
}
