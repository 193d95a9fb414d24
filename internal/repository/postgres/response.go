package postgres

import (
	"context"
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

type ResponseRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

var _ repository.ResponseRepository = (*ResponseRepository)(nil)

func NewResponseRepository(db *sqlx.DB, log *slog.Logger) *ResponseRepository {
	return &ResponseRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ResponseRepository) Create(ctx context.Context, ext sqlx.ExtContext, resp *domain.ProblemResponse) (int64, error) {
	const op = "internal.repository.postgres.CreateResponse"

	query, args, err := r.sq.Insert("problem_responses").
		Columns("issue_id", "response", "created_at").
		Values(resp.IssueID, resp.Response, resp.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var id int64
	if err := sqlx.GetContext(ctx, ext, &id, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return 0, fmt.Errorf("%w: problem with id %d", apperrors.ErrNotFound, resp.IssueID)
		}

		return 0, fmt.Errorf("%s: failed to insert response: %w", op, err)
	}

	return id, nil
}

func (r *ResponseRepository) ListByIssue(ctx context.Context, issueID int64) ([]domain.ProblemResponse, error) {
	const op = "internal.repository.postgres.ListResponsesByIssue"

	query, args, err := r.sq.Select("id", "issue_id", "response", "created_at").
		From("problem_responses").
		Where(sq.Eq{"issue_id": issueID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	responses := []domain.ProblemResponse{}
	if err := sqlx.SelectContext(ctx, r.db, &responses, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to list responses: %w", op, err)
	}

	return responses, nil
}
