package http

import (
	"net/url"
	"testing"

	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	t.Run("Absent parameters stay nil", func(t *testing.T) {
		f, err := parseFilters(url.Values{})
		require.NoError(t, err)
		assert.Nil(t, f.Statuses)
		assert.Nil(t, f.ServiceCodes)
		assert.Nil(t, f.Breach)
	})

	t.Run("Present but empty selects nothing", func(t *testing.T) {
		f, err := parseFilters(url.Values{"status": {""}, "organisation_type": {""}})
		require.NoError(t, err)
		assert.NotNil(t, f.Statuses)
		assert.Empty(t, f.Statuses)
		assert.NotNil(t, f.OrganisationTypes)
		assert.Empty(t, f.OrganisationTypes)
	})

	t.Run("Repeated and comma separated values combine", func(t *testing.T) {
		q, err := url.ParseQuery("service_code=ABC,DEF&service_code=GHI&service_id=3&formal_complaint=false")
		require.NoError(t, err)

		f, err := parseFilters(q)
		require.NoError(t, err)
		assert.Equal(t, []string{"ABC", "DEF", "GHI"}, f.ServiceCodes)
		assert.Equal(t, []int64{3}, f.ServiceIDs)
		require.NotNil(t, f.FormalComplaint)
		assert.False(t, *f.FormalComplaint)
	})

	t.Run("Invalid values", func(t *testing.T) {
		for _, raw := range []string{"category=gossip", "service_id=x", "ccg=1.5", "breach=sometimes"} {
			q, err := url.ParseQuery(raw)
			require.NoError(t, err)

			_, err = parseFilters(q)
			assert.Error(t, err, raw)
		}
	})
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("51.2, -0.5, 51.7, 0.3")
	require.NoError(t, err)
	assert.Equal(t, domain.Bounds{South: 51.2, West: -0.5, North: 51.7, East: 0.3}, b)

	for _, raw := range []string{"", "1,2,3", "a,b,c,d", "52,0,51,1", "51,1,52,0"} {
		_, err := parseBounds(raw)
		assert.Error(t, err, raw)
	}
}
