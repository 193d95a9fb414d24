package http

import (
	"context"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/service"
	"github.com/stretchr/testify/mock"
)

type SummaryServiceMock struct {
	mock.Mock
}

var _ service.SummaryService = (*SummaryServiceMock)(nil)

func (m *SummaryServiceMock) National(ctx context.Context, filters service.Filters, private bool) ([]aggregation.Row, error) {
	args := m.Called(ctx, filters, private)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]aggregation.Row), args.Error(1)
}

func (m *SummaryServiceMock) CCG(ctx context.Context, ccgID int64, filters service.Filters) ([]aggregation.Row, error) {
	args := m.Called(ctx, ccgID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]aggregation.Row), args.Error(1)
}

func (m *SummaryServiceMock) Organisation(ctx context.Context, orgID int64, filters service.Filters) (*service.OrganisationDashboard, error) {
	args := m.Called(ctx, orgID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.OrganisationDashboard), args.Error(1)
}

func (m *SummaryServiceMock) Parent(ctx context.Context, parentID int64, filters service.Filters) (*service.ParentDashboard, error) {
	args := m.Called(ctx, parentID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.ParentDashboard), args.Error(1)
}

func (m *SummaryServiceMock) Map(ctx context.Context, bounds domain.Bounds, filters service.Filters) ([]aggregation.Row, error) {
	args := m.Called(ctx, bounds, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]aggregation.Row), args.Error(1)
}

type ProblemServiceMock struct {
	mock.Mock
}

var _ service.ProblemService = (*ProblemServiceMock)(nil)

func (m *ProblemServiceMock) Create(ctx context.Context, p *domain.Problem) (*domain.Problem, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Problem), args.Error(1)
}

type ModerationServiceMock struct {
	mock.Mock
}

var _ service.ModerationService = (*ModerationServiceMock)(nil)

func (m *ModerationServiceMock) Load(ctx context.Context, sessionID string, issueID int64) (*domain.Problem, error) {
	args := m.Called(ctx, sessionID, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Problem), args.Error(1)
}

func (m *ModerationServiceMock) Moderate(ctx context.Context, sessionID string, issueID int64, mod service.Moderation) (*domain.Problem, error) {
	args := m.Called(ctx, sessionID, issueID, mod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Problem), args.Error(1)
}

type ResponseServiceMock struct {
	mock.Mock
}

var _ service.ResponseService = (*ResponseServiceMock)(nil)

func (m *ResponseServiceMock) Load(ctx context.Context, sessionID string, issueID int64) (*service.ResponseForm, error) {
	args := m.Called(ctx, sessionID, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.ResponseForm), args.Error(1)
}

func (m *ResponseServiceMock) Respond(ctx context.Context, sessionID string, issueID int64, reply service.Reply) (*domain.Problem, error) {
	args := m.Called(ctx, sessionID, issueID, reply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Problem), args.Error(1)
}
