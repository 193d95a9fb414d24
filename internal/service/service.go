package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type BaseService struct {
	db  Transactor
	log *slog.Logger
	now func() time.Time
}

func NewBaseService(db Transactor, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
		now: time.Now,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// editSession loads the session, runs fn and persists what fn changed in it.
// Changes are kept when fn succeeds or fails with a stale version, which
// re-syncs the remembered version.
func (s *BaseService) editSession(
	ctx context.Context,
	op string,
	store concurrency.Store,
	sessionID string,
	fn func(session *concurrency.Session) error,
) error {
	session, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: failed to load edit session: %w", op, err)
	}

	fnErr := fn(session)

	if session.Modified() && (fnErr == nil || errors.Is(fnErr, apperrors.ErrStaleVersion)) {
		if err := store.Save(ctx, session); err != nil {
			s.log.Error("failed to save edit session", slog.String("op", op), sl.Err(err))

			if fnErr == nil {
				return fmt.Errorf("%s: failed to save edit session: %w", op, err)
			}
		}
	}

	return fnErr
}
