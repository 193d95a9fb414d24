package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

// SessionRepository keeps the edit-session version map in edit_session_versions,
// one row per (session, issue). Entries older than maxAge are ignored on load.
type SessionRepository struct {
	db     *sqlx.DB
	log    *slog.Logger
	sq     sq.StatementBuilderType
	maxAge time.Duration
	now    func() time.Time
}

var _ concurrency.Store = (*SessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB, log *slog.Logger, maxAge time.Duration) *SessionRepository {
	return &SessionRepository{
		db:     db,
		log:    log,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		maxAge: maxAge,
		now:    time.Now,
	}
}

type sessionEntry struct {
	IssueID int64 `db:"issue_id"`
	Version int   `db:"version"`
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*concurrency.Session, error) {
	const op = "internal.repository.postgres.LoadSession"

	builder := r.sq.Select("issue_id", "version").
		From("edit_session_versions").
		Where(sq.Eq{"session_id": sessionID})

	if r.maxAge > 0 {
		builder = builder.Where(sq.Gt{"updated_at": r.now().Add(-r.maxAge)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var entries []sessionEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to load session: %w", op, err)
	}

	versions := make(map[int64]int, len(entries))
	for _, e := range entries {
		versions[e.IssueID] = e.Version
	}

	return concurrency.NewSession(sessionID, versions), nil
}

// Save writes only the entries touched since the session was loaded, so two
// requests of the same session editing different issues do not overwrite each other.
func (r *SessionRepository) Save(ctx context.Context, session *concurrency.Session) error {
	const op = "internal.repository.postgres.SaveSession"
	log := r.log.With(slog.String("op", op))

	changes := session.Changes()
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	now := r.now()

	for _, change := range changes {
		var (
			query string
			args  []any
		)

		if change.Version == nil {
			query, args, err = r.sq.Delete("edit_session_versions").
				Where(sq.Eq{"session_id": session.ID, "issue_id": change.IssueID}).
				ToSql()
		} else {
			query, args, err = r.sq.Insert("edit_session_versions").
				Columns("session_id", "issue_id", "version", "updated_at").
				Values(session.ID, change.IssueID, *change.Version, now).
				Suffix("ON CONFLICT (session_id, issue_id) DO UPDATE SET version = EXCLUDED.version, updated_at = EXCLUDED.updated_at").
				ToSql()
		}
		if err != nil {
			return fmt.Errorf("%s: failed to build query: %w", op, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: failed to write session entry for issue %d: %w", op, change.IssueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	log.Debug("session saved", slog.Int("changes", len(changes)))

	return nil
}

// DeleteExpired removes entries not touched within maxAge and reports how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const op = "internal.repository.postgres.DeleteExpiredSessions"

	if r.maxAge <= 0 {
		return 0, nil
	}

	query, args, err := r.sq.Delete("edit_session_versions").
		Where(sq.LtOrEq{"updated_at": r.now().Add(-r.maxAge)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete expired entries: %w", op, err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count deleted entries: %w", op, err)
	}

	r.log.Info("expired session entries removed", slog.Int64("removed", removed))

	return removed, nil
}
