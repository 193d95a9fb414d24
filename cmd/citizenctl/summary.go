package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/domain"
	"github.com/YusovID/citizen-connect/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

type summaryFlags struct {
	dataType          string
	intervals         []string
	statuses          []string
	ccgs              []int64
	organisationTypes []string
	extra             []string
	threshold         string
	format            string
}

func newSummaryCmd() *cobra.Command {
	var f summaryFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print interval counts per organisation",
		Example: "  citizenctl summary --data-type issues --interval week,all_time --ccg 4 --format csv\n" +
			"  citizenctl summary --data-type reviews --threshold all_time:5",
		RunE: withDB(func(cmd *cobra.Command, _ *config.Config, db *sqlx.DB, log *slog.Logger) error {
			req, err := f.request()
			if err != nil {
				return err
			}

			engine := aggregation.NewEngine(postgres.NewAggregateRepository(db, log), log)

			result, err := engine.IntervalCounts(cmd.Context(), req)
			if err != nil {
				return err
			}

			return writeRows(cmd.OutOrStdout(), f.format, result.Rows)
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&f.dataType, "data-type", string(aggregation.Issues), "issues or reviews")
	flags.StringSliceVar(&f.intervals, "interval", nil, "intervals to count, defaults to week,four_weeks,six_months,all_time")
	flags.StringSliceVar(&f.statuses, "status", nil, "problem statuses to include")
	flags.Int64SliceVar(&f.ccgs, "ccg", nil, "only organisations of these CCG ids")
	flags.StringSliceVar(&f.organisationTypes, "organisation-type", nil, "only organisations of these types")
	flags.StringSliceVar(&f.extra, "extra", nil, "extra columns: coords, type, average_recommendation_rating")
	flags.StringVar(&f.threshold, "threshold", "", "interval:min, drop organisations below min for interval")
	flags.StringVar(&f.format, "format", "csv", "csv or json")

	return cmd
}

// request builds the aggregation request. Unset list flags stay nil so the
// engine defaults apply.
func (f summaryFlags) request() (aggregation.Request, error) {
	req := aggregation.Request{
		DataType: aggregation.DataType(f.dataType),
		Organisations: aggregation.OrganisationFilters{
			CCGs:              f.ccgs,
			OrganisationTypes: f.organisationTypes,
		},
	}

	if f.format != "csv" && f.format != "json" {
		return req, fmt.Errorf("unsupported format %q (expected: csv or json)", f.format)
	}

	if f.intervals != nil {
		req.Intervals = make([]aggregation.Interval, 0, len(f.intervals))
		for _, v := range f.intervals {
			req.Intervals = append(req.Intervals, aggregation.Interval(v))
		}
	}

	if f.extra != nil {
		req.Extra = make([]aggregation.ExtraData, 0, len(f.extra))
		for _, v := range f.extra {
			req.Extra = append(req.Extra, aggregation.ExtraData(v))
		}
	}

	if f.statuses != nil {
		req.Issues.Statuses = make([]domain.Status, 0, len(f.statuses))
		for _, v := range f.statuses {
			s, err := domain.ParseStatus(v)
			if err != nil {
				return req, err
			}
			req.Issues.Statuses = append(req.Issues.Statuses, s)
		}
	}

	if f.threshold != "" {
		t, err := parseThreshold(f.threshold)
		if err != nil {
			return req, err
		}
		req.Threshold = t
	}

	return req, nil
}

func parseThreshold(raw string) (*aggregation.Threshold, error) {
	interval, minimum, ok := strings.Cut(raw, ":")
	if !ok || interval == "" {
		return nil, fmt.Errorf("threshold %q is not interval:min", raw)
	}

	n, err := strconv.Atoi(minimum)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("threshold %q needs a non-negative minimum", raw)
	}

	return &aggregation.Threshold{Interval: aggregation.Interval(interval), Min: n}, nil
}

func writeRows(w io.Writer, format string, rows []aggregation.Row) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if rows == nil {
			rows = []aggregation.Row{}
		}

		return enc.Encode(rows)
	}

	return aggregation.WriteCSV(w, rows)
}
