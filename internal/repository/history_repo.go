package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"smart_hatchery/internal/models"
)

// Archive timestamps are fixed-width UTC text so they sort lexically.
const archiveTimeLayout = "2006-01-02T15:04:05.000000Z"

const (
	insertHistorySQL = `
		INSERT INTO history_points (recorded_at, device_id, temperature, humidity, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(recorded_at) DO NOTHING
	`

	selectHistoryColumns = `device_id, recorded_at, temperature, humidity, status`
)

type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite {
	return &HistorySQLite{db: db}
}

func formatArchiveTime(t time.Time) string {
	return t.UTC().Format(archiveTimeLayout)
}

// SaveBatch archives points in one transaction and returns how many were
// new. Points without a timestamp are skipped.
func (r *HistorySQLite) SaveBatch(ctx context.Context, points []models.HistoryPoint) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin history batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertHistorySQL)
	if err != nil {
		return 0, fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		if p.Timestamp.IsZero() {
			continue
		}
		res, err := stmt.ExecContext(ctx,
			formatArchiveTime(p.Timestamp.Time),
			p.ID,
			p.Temperature,
			p.Humidity,
			string(p.Status),
		)
		if err != nil {
			return 0, fmt.Errorf("insert history point: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit history batch: %w", err)
	}
	return inserted, nil
}

// Range returns up to limit of the newest points in [from, to], oldest first.
func (r *HistorySQLite) Range(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryPoint, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, formatArchiveTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, formatArchiveTime(to))
	}

	inner := "SELECT " + selectHistoryColumns + " FROM history_points"
	if len(conds) > 0 {
		inner += " WHERE " + strings.Join(conds, " AND ")
	}
	inner += " ORDER BY recorded_at DESC LIMIT ?"
	args = append(args, limit)

	q := "SELECT " + selectHistoryColumns + " FROM (" + inner + ") ORDER BY recorded_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.HistoryPoint, 0, 64)
	for rows.Next() {
		var (
			p          models.HistoryPoint
			recordedAt string
			status     string
		)
		if err := rows.Scan(&p.ID, &recordedAt, &p.Temperature, &p.Humidity, &status); err != nil {
			return nil, err
		}
		ts, err := models.ParseDeviceTime(recordedAt)
		if err != nil {
			return nil, err
		}
		p.Timestamp = models.DeviceTime{Time: ts}
		p.Status = models.Status(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
