package aggregation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	quarter := 1.0 / 4

	a := newRow(1, "A01", "Alpha, General")
	a.Counts["week"] = 3
	a.Fractions["happy_service"] = &quarter
	a.Responses["happy_service"] = 4

	b := newRow(2, "B01", "Beta")
	b.Counts["week"] = 0
	b.Counts["reviews_week"] = 2
	b.Fractions["happy_service"] = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{a, b}))

	expected := "id,ods_code,name,happy_service,happy_service_count,reviews_week,week\n" +
		"1,A01,\"Alpha, General\",0.25,4,,3\n" +
		"2,B01,Beta,,0,2,0\n"

	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,ods_code,name\n", buf.String())
}
