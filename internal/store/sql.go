package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/iwvelando/investment-optimizer/internal/config"
	"github.com/iwvelando/investment-optimizer/pkg/constants"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const table = "investments_results"

var columns = []string{
	"id",
	"file_name",
	"max_profit",
	"total_investment",
	"roi",
	"distribution",
	"enterprise_details",
	"created_at",
	"updated_at",
}

type dialect struct {
	driver      string
	placeholder sq.PlaceholderFormat
	schema      []string
}

var dialects = map[string]dialect{
	constants.DriverPostgres: {
		driver:      "pgx",
		placeholder: sq.Dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS investments_results (
				id UUID PRIMARY KEY,
				file_name VARCHAR NOT NULL,
				max_profit DOUBLE PRECISION NOT NULL,
				total_investment DOUBLE PRECISION NOT NULL,
				roi DOUBLE PRECISION NOT NULL,
				distribution JSONB NOT NULL,
				enterprise_details JSONB NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT now(),
				updated_at TIMESTAMP NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_investments_results_created_at ON investments_results (created_at)`,
		},
	},
	constants.DriverSQLite: {
		driver:      "sqlite",
		placeholder: sq.Question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS investments_results (
				id TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				max_profit REAL NOT NULL,
				total_investment REAL NOT NULL,
				roi REAL NOT NULL,
				distribution TEXT NOT NULL,
				enterprise_details TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_investments_results_created_at ON investments_results (created_at)`,
		},
	},
}

// SQLStore is a Store backed by PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	logger  *zap.Logger
	now     func() time.Time
}

// Open connects to the configured database. Call Migrate before first use
// of a fresh database.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*SQLStore, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Driver == constants.DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db, cfg.Driver, logger)
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, logger *zap.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Migrate creates the results table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Info("database schema ready",
		zap.String("op", "store.Migrate"),
		zap.String("driver", s.dialect.driver),
	)
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create inserts the record.
func (s *SQLStore) Create(ctx context.Context, record *Record) error {
	s.logger.Debug("creating investment result",
		zap.String("op", "store.Create"),
		zap.String("fileName", record.FileName),
	)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.timestamp()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	distribution, details, err := encodeMaps(record)
	if err != nil {
		return err
	}

	query, args, err := s.builder.Insert(table).
		Columns(columns...).
		Values(
			record.ID.String(),
			record.FileName,
			record.MaxProfit,
			record.TotalInvestment,
			record.ROI,
			distribution,
			details,
			record.CreatedAt.UTC(),
			record.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert investment result: %w", err)
	}

	s.logger.Debug("created investment result",
		zap.String("op", "store.Create"),
		zap.String("id", record.ID.String()),
	)
	return nil
}

// Get returns the record with the given id.
func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	query, args, err := s.builder.Select(columns...).
		From(table).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return s.queryOne(ctx, "store.Get", query, args)
}

// Last returns the most recently created record.
func (s *SQLStore) Last(ctx context.Context) (*Record, error) {
	query, args, err := s.builder.Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return s.queryOne(ctx, "store.Last", query, args)
}

// List returns every record, oldest first.
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	query, args, err := s.builder.Select(columns...).
		From(table).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investment results: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list investment results: %w", err)
	}

	s.logger.Debug("listed investment results",
		zap.String("op", "store.List"),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// Update overwrites the stored values of record and refreshes UpdatedAt.
func (s *SQLStore) Update(ctx context.Context, record *Record) error {
	distribution, details, err := encodeMaps(record)
	if err != nil {
		return err
	}
	updatedAt := s.timestamp()

	query, args, err := s.builder.Update(table).
		Set("file_name", record.FileName).
		Set("max_profit", record.MaxProfit).
		Set("total_investment", record.TotalInvestment).
		Set("roi", record.ROI).
		Set("distribution", distribution).
		Set("enterprise_details", details).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": record.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	if err := s.execAffecting(ctx, query, args); err != nil {
		return err
	}
	record.UpdatedAt = updatedAt

	s.logger.Debug("updated investment result",
		zap.String("op", "store.Update"),
		zap.String("id", record.ID.String()),
	)
	return nil
}

// Delete removes the record with the given id.
func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := s.builder.Delete(table).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if err := s.execAffecting(ctx, query, args); err != nil {
		return err
	}

	s.logger.Debug("deleted investment result",
		zap.String("op", "store.Delete"),
		zap.String("id", id.String()),
	)
	return nil
}

func (s *SQLStore) execAffecting(ctx context.Context, query string, args []interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write investment result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) queryOne(ctx context.Context, op, query string, args []interface{}) (*Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("loaded investment result",
		zap.String("op", op),
		zap.String("id", record.ID.String()),
	)
	return record, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		record       Record
		distribution []byte
		details      []byte
	)
	err := row.Scan(
		&record.ID,
		&record.FileName,
		&record.MaxProfit,
		&record.TotalInvestment,
		&record.ROI,
		&distribution,
		&details,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan investment result: %w", err)
	}

	if err := json.Unmarshal(distribution, &record.Distribution); err != nil {
		return nil, fmt.Errorf("failed to decode distribution of %s: %w", record.ID, err)
	}
	if err := json.Unmarshal(details, &record.EnterpriseDetails); err != nil {
		return nil, fmt.Errorf("failed to decode enterprise details of %s: %w", record.ID, err)
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return &record, nil
}

func encodeMaps(record *Record) (string, string, error) {
	distribution, err := json.Marshal(record.Distribution)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode distribution: %w", err)
	}
	details, err := json.Marshal(record.EnterpriseDetails)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode enterprise details: %w", err)
	}
	return string(distribution), string(details), nil
}
