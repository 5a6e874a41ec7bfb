package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-gateway/contact/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgQuerier é o subconjunto do pgxpool.Pool usado pelo PostgresKV.
type PgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresPool cria o pool de conexões e confere com Ping.
func NewPostgresPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PostgresKV implementa domain.KVStore sobre uma tabela
// (key TEXT PRIMARY KEY, value TEXT, expires_at TIMESTAMPTZ NULL).
//
// A expiração é lógica: Get ignora linhas vencidas e PurgeExpired apaga.
type PostgresKV struct {
	db    PgQuerier
	table string
	now   func() time.Time
}

type PostgresKVOption func(*PostgresKV)

func WithTable(name string) PostgresKVOption {
	return func(s *PostgresKV) {
		if name != "" {
			s.table = pgx.Identifier{name}.Sanitize()
		}
	}
}

func WithPostgresClock(now func() time.Time) PostgresKVOption {
	return func(s *PostgresKV) { s.now = now }
}

func NewPostgresKV(db PgQuerier, opts ...PostgresKVOption) *PostgresKV {
	s := &PostgresKV{
		db:    db,
		table: pgx.Identifier{"contact_kv"}.Sanitize(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.KVStore = (*PostgresKV)(nil)

func (s *PostgresKV) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		expires_at TIMESTAMPTZ
	)`)
	if err != nil {
		return fmt.Errorf("postgres ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM `+s.table+`
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, s.now().UTC(),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().UTC().Add(ttl)
		expiresAt = &t
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.table+` (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", key, err)
	}
	return nil
}

// PurgeExpired apaga as linhas vencidas e devolve quantas foram removidas.
func (s *PostgresKV) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM `+s.table+` WHERE expires_at IS NOT NULL AND expires_at <= $1`,
		s.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
