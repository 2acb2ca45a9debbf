package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
	_ "github.com/lib/pq"
)

var openDB = sql.Open

type PostgresAlertRepository struct {
	db *sql.DB
}

func NewPostgresAlertRepository(connURL string, db *sql.DB) (*PostgresAlertRepository, error) {
	if db == nil {
		var err error
		db, err = openDB("postgres", connURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		err = db.Ping()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	return &PostgresAlertRepository{db: db}, nil
}

// Migrate creates the parent alerts table. Rows land in the monthly
// partitions created by CreatePartition.
func (r *PostgresAlertRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alerts (
			id UUID NOT NULL,
			kind TEXT NOT NULL,
			level TEXT NOT NULL,
			service TEXT NOT NULL,
			message TEXT NOT NULL,
			record_timestamp TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (id, created_at)
		) PARTITION BY RANGE (created_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create alerts table: %w", err)
	}
	return nil
}

func (r *PostgresAlertRepository) SaveAlert(ctx context.Context, alert model.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, kind, level, service, message, record_timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, alert.ID, alert.Kind, alert.Level, alert.Service, alert.Message, alert.RecordTimestamp, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

func (r *PostgresAlertRepository) ListRecent(ctx context.Context, limit int) ([]model.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, level, service, message, record_timestamp, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Kind, &a.Level, &a.Service, &a.Message, &a.RecordTimestamp, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

func (r *PostgresAlertRepository) CreatePartition(ctx context.Context, month time.Time) error {
	partitionName := fmt.Sprintf("alerts_y%04dm%02d", month.Year(), month.Month())
	startDate := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, 0)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF alerts
		FOR VALUES FROM ('%s') TO ('%s')
	`, partitionName, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	_, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create partition %s: %w", partitionName, err)
	}

	return nil
}

func (r *PostgresAlertRepository) Close() error {
	return r.db.Close()
}
