// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"

	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ProblemRepository defines the contract for problem records.
type ProblemRepository interface {
	// Create inserts a new problem and returns its id.
	// It returns apperrors.ErrNotFound if the organisation or service does not exist.
	Create(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem) (int64, error)

	// GetByID retrieves a problem by id.
	// The ext argument allows this method to be executed within a transaction (*sqlx.Tx)
	// or directly on a DB connection (*sqlx.DB).
	// It returns apperrors.ErrNotFound if the problem is not found.
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Problem, error)

	// UpdateWithVersion writes the mutable fields of p only if the stored version
	// still equals expectedVersion, incrementing it in the same statement.
	// It returns the new version, apperrors.ErrVersionConflict when the version moved on,
	// or apperrors.ErrNotFound when the problem does not exist.
	UpdateWithVersion(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem, expectedVersion int) (int, error)
}

// ResponseRepository defines the contract for provider responses to problems.
type ResponseRepository interface {
	// Create stores a response. It returns apperrors.ErrNotFound if the problem does not exist.
	Create(ctx context.Context, ext sqlx.ExtContext, resp *domain.ProblemResponse) (int64, error)

	// ListByIssue returns the responses of a problem, oldest first.
	ListByIssue(ctx context.Context, issueID int64) ([]domain.ProblemResponse, error)
}

// OrganisationRepository defines the read-only organisation and service lookups.
type OrganisationRepository interface {
	// GetByID returns apperrors.ErrNotFound if the organisation is not found.
	GetByID(ctx context.Context, id int64) (*domain.Organisation, error)

	// IDsByParent returns the ids of the organisations belonging to a parent (trust).
	IDsByParent(ctx context.Context, parentID int64) ([]int64, error)

	// WithinBounds returns the ids of the organisations located inside b.
	WithinBounds(ctx context.Context, b domain.Bounds) ([]int64, error)

	// GetService returns a service with its owning organisation.
	// It returns apperrors.ErrNotFound if the service is not found.
	GetService(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Service, error)
}
