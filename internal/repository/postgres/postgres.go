package postgres

import (
	"fmt"
	"log/slog"

	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pgForeignKeyViolation = "23503"

type Postgres struct {
	db *sqlx.DB
}

func NewDB(cfg config.Postgres, log *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", cfg.ConnString()+"?sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Debug("connected to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return &Postgres{db: db}, nil
}

func (p *Postgres) DB() *sqlx.DB {
	return p.db
}
