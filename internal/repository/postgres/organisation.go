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
)

type OrganisationRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

var _ repository.OrganisationRepository = (*OrganisationRepository)(nil)

func NewOrganisationRepository(db *sqlx.DB, log *slog.Logger) *OrganisationRepository {
	return &OrganisationRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OrganisationRepository) GetByID(ctx context.Context, id int64) (*domain.Organisation, error) {
	const op = "internal.repository.postgres.GetOrganisationByID"

	query, args, err := r.sq.Select(
		"id", "ods_code", "name", "organisation_type", "parent_id",
		"lat", "lon", "average_recommendation_rating",
	).
		From("organisations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var org domain.Organisation
	if err := sqlx.GetContext(ctx, r.db, &org, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: organisation with id %d", apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get organisation: %w", op, err)
	}

	return &org, nil
}

func (r *OrganisationRepository) GetService(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Service, error) {
	const op = "internal.repository.postgres.GetService"

	query, args, err := r.sq.Select("id", "organisation_id", "service_code", "name").
		From("services").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var svc domain.Service
	if err := sqlx.GetContext(ctx, ext, &svc, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: service with id %d", apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get service: %w", op, err)
	}

	return &svc, nil
}

func (r *OrganisationRepository) IDsByParent(ctx context.Context, parentID int64) ([]int64, error) {
	const op = "internal.repository.postgres.IDsByParent"

	return r.selectIDs(ctx, op, sq.Eq{"parent_id": parentID})
}

func (r *OrganisationRepository) WithinBounds(ctx context.Context, b domain.Bounds) ([]int64, error) {
	const op = "internal.repository.postgres.WithinBounds"

	return r.selectIDs(ctx, op, sq.And{
		sq.GtOrEq{"lat": b.South},
		sq.LtOrEq{"lat": b.North},
		sq.GtOrEq{"lon": b.West},
		sq.LtOrEq{"lon": b.East},
	})
}

func (r *OrganisationRepository) selectIDs(ctx context.Context, op string, where sq.Sqlizer) ([]int64, error) {
	query, args, err := r.sq.Select("id").
		From("organisations").
		Where(where).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	ids := []int64{}
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select organisation ids: %w", op, err)
	}

	return ids, nil
}
