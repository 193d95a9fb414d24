package aggregation

import (
	"encoding/json"
	"sort"
	"strings"
)

// Row is the aggregated data of one organisation. Averages and Fractions hold
// nil when no fact row had a value for the field.
type Row struct {
	ID      int64
	ODSCode string
	Name    string

	Type                        *string
	Lat                         *float64
	Lon                         *float64
	AverageRecommendationRating *float64

	Counts     map[string]int
	Averages   map[string]*float64
	Fractions  map[string]*float64
	Responses  map[string]int
	TrueCounts map[string]int
}

func newRow(id int64, odsCode, name string) Row {
	return Row{
		ID:         id,
		ODSCode:    odsCode,
		Name:       name,
		Counts:     map[string]int{},
		Averages:   map[string]*float64{},
		Fractions:  map[string]*float64{},
		Responses:  map[string]int{},
		TrueCounts: map[string]int{},
	}
}

func (r Row) Count(name string) int {
	return r.Counts[name]
}

// Fields flattens the row into the keys used by the JSON and CSV outputs:
// interval names, average_<field>, <field> fractions and <field>_count.
func (r Row) Fields() map[string]any {
	fields := map[string]any{
		"id":       r.ID,
		"ods_code": r.ODSCode,
		"name":     r.Name,
	}

	if r.Type != nil {
		fields["type"] = *r.Type
	}

	if r.Lat != nil || r.Lon != nil {
		fields["lat"] = r.Lat
		fields["lon"] = r.Lon
	}

	if r.AverageRecommendationRating != nil {
		fields["average_recommendation_rating"] = *r.AverageRecommendationRating
	}

	for k, v := range r.Counts {
		fields[k] = v
	}

	for k, v := range r.Averages {
		fields[k] = v
	}

	for k, v := range r.Fractions {
		fields[k] = v
		fields[responseName(k)] = r.Responses[k]
	}

	return fields
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// SortRows orders rows by name and then by id, so organisations sharing a
// name keep a fixed order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}

		return rows[i].ID < rows[j].ID
	})
}

// FilterByThreshold keeps the rows where at least one of the named counts
// reaches minimum.
func FilterByThreshold(rows []Row, minimum int, names ...string) []Row {
	kept := make([]Row, 0, len(rows))

	for _, row := range rows {
		for _, name := range names {
			if row.Counts[name] >= minimum {
				kept = append(kept, row)
				break
			}
		}
	}

	return kept
}

// Merge joins problem rows and review rows on the organisation id. An
// organisation present on one side only is kept with the other side's
// values missing.
func Merge(problems, reviews []Row) []Row {
	byID := make(map[int64]int, len(problems))
	merged := make([]Row, 0, len(problems))

	for _, p := range problems {
		byID[p.ID] = len(merged)
		merged = append(merged, p.clone())
	}

	for _, r := range reviews {
		idx, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = len(merged)
			merged = append(merged, r.clone())

			continue
		}

		for k, v := range r.Counts {
			merged[idx].Counts[k] = v
		}
	}

	SortRows(merged)

	return merged
}

// Summarise folds rows into one totals row. Counts are summed, averages are
// weighted by their number of responses and fractions are recomputed from
// the summed true and response counts.
func Summarise(rows []Row) Row {
	total := newRow(0, "", "")
	weighted := map[string]float64{}

	for _, row := range rows {
		for k, v := range row.Counts {
			total.Counts[k] += v
		}

		for k, v := range row.Responses {
			total.Responses[k] += v
		}

		for k, v := range row.TrueCounts {
			total.TrueCounts[k] += v
		}

		for k, v := range row.Averages {
			if _, ok := total.Averages[k]; !ok {
				total.Averages[k] = nil
			}

			if v != nil {
				weighted[k] += *v * float64(row.Responses[strings.TrimPrefix(k, "average_")])
			}
		}

		for k := range row.Fractions {
			total.Fractions[k] = nil
		}
	}

	for k := range total.Averages {
		n := total.Responses[strings.TrimPrefix(k, "average_")]
		if n > 0 {
			avg := weighted[k] / float64(n)
			total.Averages[k] = &avg
		}
	}

	for k := range total.Fractions {
		total.Fractions[k] = fraction(total.TrueCounts[k], total.Responses[k])
	}

	return total
}

func fraction(trueCount, responses int) *float64 {
	if responses == 0 {
		return nil
	}

	f := float64(trueCount) / float64(responses)

	return &f
}

func (r Row) clone() Row {
	c := r
	c.Counts = cloneMap(r.Counts)
	c.Averages = cloneMap(r.Averages)
	c.Fractions = cloneMap(r.Fractions)
	c.Responses = cloneMap(r.Responses)
	c.TrueCounts = cloneMap(r.TrueCounts)

	return c
}

func cloneMap[V any](m map[string]V) map[string]V {
	c := make(map[string]V, len(m))
	for k, v := range m {
		c[k] = v
	}

	return c
}
