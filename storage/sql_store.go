package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"purehill-revenue/models"
	"purehill-revenue/utils"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database/sql drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLStore archives raw rate rows in a rate_observations table and serves them back as a batch
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *utils.Logger
}

var _ RawArchive = (*SQLStore)(nil)

// NewSQLStore opens the database and pings it
func NewSQLStore(driver, dsn string, logger *utils.Logger) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Minute * 5)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to %s successfully", driver)
	return &SQLStore{db: db, driver: driver, logger: logger}, nil
}

// CreateTable creates the rate_observations table if it doesn't exist, with indexes
func (s *SQLStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rate_observations (
			hotel_name   TEXT      NOT NULL DEFAULT '',
			stay_date    TEXT      NOT NULL DEFAULT '',
			room_type    TEXT      NOT NULL DEFAULT '',
			channel      TEXT      NOT NULL DEFAULT '',
			price        TEXT      NOT NULL DEFAULT '',
			collected_at TEXT      NOT NULL DEFAULT '',
			inserted_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_obs_hotel ON rate_observations (hotel_name)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_obs_stay  ON rate_observations (stay_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	s.logger.Info("Table 'rate_observations' is ready")
	return nil
}

// BatchInsert inserts raw rows in a single transaction. Rows are stored exactly as sourced.
func (s *SQLStore) BatchInsert(ctx context.Context, rates []*models.RawRate) (err error) {
	if len(rates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO rate_observations (%s) VALUES (%s)`,
		strings.Join(rawColumns, ", "), s.placeholders(len(rawColumns)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rates {
		values := rawValues(r)
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row for '%s': %w", r.HotelName, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Archived %d raw rates", len(rates))
	return nil
}

// Fetch returns every archived row
func (s *SQLStore) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	query := fmt.Sprintf(`SELECT %s FROM rate_observations ORDER BY collected_at, hotel_name, stay_date, channel`,
		strings.Join(rawColumns, ", "))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rate_observations: %w", err)
	}
	defer rows.Close()

	var rates []*models.RawRate
	for rows.Next() {
		r := &models.RawRate{}
		if err := rows.Scan(&r.HotelName, &r.StayDate, &r.RoomType, &r.Channel, &r.Price, &r.CollectedAt); err != nil {
			return nil, fmt.Errorf("scan rate_observations: %w", err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate_observations: %w", err)
	}
	return rates, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.driver == DriverPostgres {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}
