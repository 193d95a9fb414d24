package aggregation

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

var leadingColumns = []string{"id", "ods_code", "name"}

// WriteCSV writes rows with a header of id, ods_code, name followed by every
// other field present in any row, sorted. Missing and no-data values are empty.
func WriteCSV(w io.Writer, rows []Row) error {
	header := csvHeader(rows)

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(header))

	for _, row := range rows {
		fields := row.Fields()

		for i, col := range header {
			record[i] = csvValue(fields[col])
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for organisation %d: %w", row.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func csvHeader(rows []Row) []string {
	seen := map[string]bool{}
	for _, col := range leadingColumns {
		seen[col] = true
	}

	var rest []string

	for _, row := range rows {
		for col := range row.Fields() {
			if !seen[col] {
				seen[col] = true
				rest = append(rest, col)
			}
		}
	}

	slices.Sort(rest)

	return append(slices.Clone(leadingColumns), rest...)
}

func csvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case *float64:
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
