package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
}

const tradesSchema = `
CREATE TABLE IF NOT EXISTS trades (
    trade_id   BIGSERIAL PRIMARY KEY,
    security   TEXT             NOT NULL,
    price      DOUBLE PRECISION NOT NULL,
    time       BIGINT           NOT NULL,
    quantity   BIGINT           NOT NULL,
    owner      TEXT             NOT NULL,
    recorded   TIMESTAMPTZ      NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_recorded ON trades (recorded DESC);
CREATE INDEX IF NOT EXISTS idx_trades_security ON trades (security, recorded DESC);
`

// NewPostgresPool creates a PostgreSQL connection pool and verifies the
// connection.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode, cfg.MaxConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// PostgresTradeStore is the durable trade journal.
type PostgresTradeStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTradeStore connects to PostgreSQL and ensures the trades
// schema exists.
func NewPostgresTradeStore(cfg PostgresConfig) (*PostgresTradeStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, tradesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &PostgresTradeStore{pool: pool}, nil
}

const insertTrade = `
	INSERT INTO trades (security, price, time, quantity, owner, recorded)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func (s *PostgresTradeStore) Save(trade *Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertTrade,
		trade.Security, trade.Price, trade.Time, trade.Quantity, trade.Owner, trade.Recorded,
	)
	return err
}

func (s *PostgresTradeStore) SaveBatch(trades []*Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(insertTrade,
			trade.Security, trade.Price, trade.Time, trade.Quantity, trade.Owner, trade.Recorded,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(trades); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at index %d: %w", i, err)
		}
	}
	return nil
}

func (s *PostgresTradeStore) GetRecent(limit int) ([]*Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT security, price, time, quantity, owner, recorded
		FROM trades
		ORDER BY recorded DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		var trade Trade
		err := rows.Scan(
			&trade.Security, &trade.Price, &trade.Time,
			&trade.Quantity, &trade.Owner, &trade.Recorded,
		)
		if err != nil {
			continue
		}
		trades = append(trades, &trade)
	}
	return trades, rows.Err()
}

func (s *PostgresTradeStore) Close() error {
	s.pool.Close()
	return nil
}
