package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const factAlias = "f"

var organisationColumns = []string{
	"o.id", "o.ods_code", "o.name", "o.organisation_type",
	"o.lat", "o.lon", "o.average_recommendation_rating",
}

// metricColumns lists the fact columns a metric may aggregate.
var metricColumns = map[string]bool{
	string(aggregation.TimeToAcknowledge): true,
	string(aggregation.TimeToAddress):     true,
	string(aggregation.HappyService):      true,
	string(aggregation.HappyOutcome):      true,
}

var factColumns = map[aggregation.Field]string{
	aggregation.FieldStatus:            "status",
	aggregation.FieldServiceID:         "service_id",
	aggregation.FieldCategory:          "category",
	aggregation.FieldPublicationStatus: "publication_status",
	aggregation.FieldBreach:            "breach",
	aggregation.FieldFormalComplaint:   "formal_complaint",
	aggregation.FieldInReplyTo:         "in_reply_to_id",
}

// AggregateRepository renders aggregation plans into one grouped query:
// organisations left joined with the filtered fact table, one column per metric.
type AggregateRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

var _ aggregation.Store = (*AggregateRepository)(nil)

func NewAggregateRepository(db *sqlx.DB, log *slog.Logger) *AggregateRepository {
	return &AggregateRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AggregateRepository) Aggregate(ctx context.Context, plan *aggregation.Plan) ([]aggregation.Record, error) {
	const op = "internal.repository.postgres.Aggregate"

	query, args, err := r.buildQuery(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	r.log.Debug("running aggregation", slog.String("op", op), slog.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()

	var records []aggregation.Record

	for rows.Next() {
		var (
			rec              aggregation.Record
			lat, lon, rating sql.NullFloat64
		)

		values := make([]sql.NullFloat64, len(plan.Metrics))
		dest := make([]any, 0, len(organisationColumns)+len(plan.Metrics))
		dest = append(dest, &rec.OrganisationID, &rec.ODSCode, &rec.Name, &rec.OrganisationType, &lat, &lon, &rating)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
		}

		rec.Lat = nullFloat(lat)
		rec.Lon = nullFloat(lon)
		rec.AverageRecommendationRating = nullFloat(rating)

		rec.Values = make(map[string]*float64, len(plan.Metrics))
		for i, m := range plan.Metrics {
			rec.Values[m.Name] = nullFloat(values[i])
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate rows: %w", op, err)
	}

	return records, nil
}

func (r *AggregateRepository) buildQuery(plan *aggregation.Plan) (string, []any, error) {
	builder := r.sq.Select(organisationColumns...).From("organisations o")

	for _, m := range plan.Metrics {
		col, err := metricColumn(plan, m)
		if err != nil {
			return "", nil, err
		}

		builder = builder.Column(col)
	}

	join := sq.And{sq.Expr(factAlias + ".organisation_id = o.id")}

	for _, p := range plan.FactPredicates {
		cond, err := factCondition(p)
		if err != nil {
			return "", nil, err
		}

		join = append(join, cond)
	}

	joinSQL, joinArgs, err := join.ToSql()
	if err != nil {
		return "", nil, err
	}

	builder = builder.LeftJoin(fmt.Sprintf("%s %s ON %s", plan.FactTable(), factAlias, joinSQL), joinArgs...)

	if len(plan.OrganisationPredicates) > 0 {
		where := sq.And{}

		for _, p := range plan.OrganisationPredicates {
			cond, err := organisationCondition(p)
			if err != nil {
				return "", nil, err
			}

			where = append(where, cond)
		}

		builder = builder.Where(where)
	}

	return builder.GroupBy("o.id").OrderBy("o.name", "o.id").ToSql()
}

func metricColumn(plan *aggregation.Plan, m aggregation.Metric) (sq.Sqlizer, error) {
	alias := pq.QuoteIdentifier(m.Name)

	if m.Kind != aggregation.MetricCount && !metricColumns[m.Column] {
		return nil, fmt.Errorf("unknown metric column '%s'", m.Column)
	}

	column := factAlias + "." + m.Column

	switch m.Kind {
	case aggregation.MetricCount:
		var conds sq.And

		if m.Since != nil {
			conds = append(conds, sq.Gt{factAlias + "." + plan.DateColumn(): *m.Since})
		}

		if m.Statuses != nil {
			conds = append(conds, sq.Eq{factAlias + ".status": m.Statuses})
		}

		if len(conds) == 0 {
			return sq.Expr(fmt.Sprintf("COUNT(%s.id) AS %s", factAlias, alias)), nil
		}

		condSQL, args, err := conds.ToSql()
		if err != nil {
			return nil, err
		}

		return sq.Expr(fmt.Sprintf("COUNT(%s.id) FILTER (WHERE %s) AS %s", factAlias, condSQL, alias), args...), nil
	case aggregation.MetricAverage:
		return sq.Expr(fmt.Sprintf("AVG(%s) AS %s", column, alias)), nil
	case aggregation.MetricTrueCount:
		return sq.Expr(fmt.Sprintf("COUNT(%s) FILTER (WHERE %s) AS %s", column, column, alias)), nil
	case aggregation.MetricNonNullCount:
		return sq.Expr(fmt.Sprintf("COUNT(%s) AS %s", column, alias)), nil
	}

	return nil, fmt.Errorf("unknown metric kind %d", m.Kind)
}

func factCondition(p aggregation.Predicate) (sq.Sqlizer, error) {
	if p.Field == aggregation.FieldServiceCode {
		sub, args, err := sq.Select("id").From("services").Where(sq.Eq{"service_code": p.Values}).ToSql()
		if err != nil {
			return nil, err
		}

		return sq.Expr(fmt.Sprintf("%s.service_id IN (%s)", factAlias, sub), args...), nil
	}

	column, ok := factColumns[p.Field]
	if !ok {
		return nil, fmt.Errorf("unknown issue filter '%s'", p.Field)
	}

	return predicate(factAlias+"."+column, p), nil
}

func organisationCondition(p aggregation.Predicate) (sq.Sqlizer, error) {
	switch p.Field {
	case aggregation.FieldOrganisationID:
		return predicate("o.id", p), nil
	case aggregation.FieldOrganisationType:
		return predicate("o.organisation_type", p), nil
	case aggregation.FieldCCG:
		sub, args, err := sq.Select("organisation_parent_id").
			From("organisation_parent_ccgs").
			Where(sq.Eq{"ccg_id": p.Values}).
			ToSql()
		if err != nil {
			return nil, err
		}

		return sq.Expr("o.parent_id IN ("+sub+")", args...), nil
	}

	return nil, fmt.Errorf("unknown organisation filter '%s'", p.Field)
}

func predicate(column string, p aggregation.Predicate) sq.Sqlizer {
	if p.Op == aggregation.OpIsNull {
		return sq.Eq{column: nil}
	}

	return sq.Eq{column: p.Values}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	f := v.Float64

	return &f
}
