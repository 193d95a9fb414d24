package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganisationRepository_WithinBounds(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewOrganisationRepository(db, discardLogger())

	smock.ExpectQuery(`SELECT id FROM organisations WHERE \(lat >= \$1 AND lat <= \$2 AND lon >= \$3 AND lon <= \$4\) ORDER BY id`).
		WithArgs(51.0, 52.0, -1.0, 0.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(4)))

	ids, err := repo.WithinBounds(context.Background(), domain.Bounds{South: 51, West: -1, North: 52, East: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestOrganisationRepository_IDsByParent(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewOrganisationRepository(db, discardLogger())

	smock.ExpectQuery(`SELECT id FROM organisations WHERE parent_id = \$1 ORDER BY id`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.IDsByParent(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestOrganisationRepository_GetByIDNotFound(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewOrganisationRepository(db, discardLogger())

	smock.ExpectQuery(`SELECT id, ods_code, .* FROM organisations WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestOrganisationRepository_GetService(t *testing.T) {
	testCases := []struct {
		name        string
		rows        *sqlmock.Rows
		expected    *domain.Service
		expectedErr error
	}{
		{
			name: "Success",
			rows: sqlmock.NewRows([]string{"id", "organisation_id", "service_code", "name"}).
				AddRow(int64(5), int64(3), "SRV0001", "A&E"),
			expected: &domain.Service{ID: 5, OrganisationID: 3, ServiceCode: "SRV0001", Name: "A&E"},
		},
		{
			name:        "Not found",
			rows:        sqlmock.NewRows([]string{"id", "organisation_id", "service_code", "name"}),
			expectedErr: apperrors.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, smock := newMockDB(t)
			repo := NewOrganisationRepository(db, discardLogger())

			smock.ExpectQuery(`SELECT id, organisation_id, service_code, name FROM services WHERE id = \$1`).
				WithArgs(int64(5)).
				WillReturnRows(tc.rows)

			svc, err := repo.GetService(context.Background(), db, 5)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, svc)
			}

			assert.NoError(t, smock.ExpectationsWereMet())
		})
	}
}
