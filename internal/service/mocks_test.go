package service

import (
	"context"
	"database/sql"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type ProblemRepositoryMock struct {
	mock.Mock
}

var _ repository.ProblemRepository = (*ProblemRepositoryMock)(nil)

func (m *ProblemRepositoryMock) Create(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem) (int64, error) {
	args := m.Called(ctx, ext, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProblemRepositoryMock) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Problem, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	// Callers mutate the problem; hand out a copy like a real read would.
	p := *args.Get(0).(*domain.Problem)

	return &p, args.Error(1)
}

func (m *ProblemRepositoryMock) UpdateWithVersion(ctx context.Context, ext sqlx.ExtContext, p *domain.Problem, expectedVersion int) (int, error) {
	args := m.Called(ctx, ext, p, expectedVersion)
	return args.Int(0), args.Error(1)
}

type ResponseRepositoryMock struct {
	mock.Mock
}

var _ repository.ResponseRepository = (*ResponseRepositoryMock)(nil)

func (m *ResponseRepositoryMock) Create(ctx context.Context, ext sqlx.ExtContext, resp *domain.ProblemResponse) (int64, error) {
	args := m.Called(ctx, ext, resp)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ResponseRepositoryMock) ListByIssue(ctx context.Context, issueID int64) ([]domain.ProblemResponse, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ProblemResponse), args.Error(1)
}

type OrganisationRepositoryMock struct {
	mock.Mock
}

var _ repository.OrganisationRepository = (*OrganisationRepositoryMock)(nil)

func (m *OrganisationRepositoryMock) GetByID(ctx context.Context, id int64) (*domain.Organisation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Organisation), args.Error(1)
}

func (m *OrganisationRepositoryMock) IDsByParent(ctx context.Context, parentID int64) ([]int64, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]int64), args.Error(1)
}

func (m *OrganisationRepositoryMock) WithinBounds(ctx context.Context, b domain.Bounds) ([]int64, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]int64), args.Error(1)
}

func (m *OrganisationRepositoryMock) GetService(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Service, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Service), args.Error(1)
}

type IntervalCounterMock struct {
	mock.Mock
}

var _ IntervalCounter = (*IntervalCounterMock)(nil)

func (m *IntervalCounterMock) IntervalCounts(ctx context.Context, req aggregation.Request) (aggregation.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(aggregation.Result), args.Error(1)
}

type TransactorMock struct {
	mock.Mock
}

var _ Transactor = (*TransactorMock)(nil)

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}
