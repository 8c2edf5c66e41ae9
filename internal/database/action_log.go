package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"rybak/internal/actionlog"
)

// LogRow запись action_log для просмотра
type LogRow struct {
	ID        int64
	Session   string
	Seq       int64
	At        time.Time
	Kind      string
	Target    sql.NullFloat64
	RawTarget sql.NullFloat64
	Actuator  sql.NullFloat64
	Diff      sql.NullFloat64
	HoldMs    int64
	Caught    bool
	CatchNo   int
	Message   string
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// SaveActionEntry сохраняет запись журнала
func (h *DatabaseManager) SaveActionEntry(ctx context.Context, e actionlog.Entry) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO action_log (session, seq, at_ms, kind, target, raw_target, actuator, diff, hold_ms, caught, catch_no, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Session, e.Seq, e.At.UnixMilli(), e.Kind,
		nullable(e.Target), nullable(e.RawTarget), nullable(e.Actuator), nullable(e.Diff),
		e.Hold.Milliseconds(), e.Caught, e.CatchNo, e.Message)
	if err != nil {
		return fmt.Errorf("ошибка вставки записи журнала #%d: %w", e.Seq, err)
	}
	return nil
}

// LogFilter условия выборки для просмотра
type LogFilter struct {
	Session string
	Kind    string
	Limit   int
	Offset  int
}

// RecentEntries последние записи, новые первыми
func (h *DatabaseManager) RecentEntries(ctx context.Context, f LogFilter) ([]LogRow, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	query := `SELECT id, session, seq, at_ms, kind, target, raw_target, actuator, diff, hold_ms, caught, catch_no, message
		FROM action_log WHERE 1=1`
	var args []interface{}
	if f.Session != "" {
		query += ` AND session = ?`
		args = append(args, f.Session)
	}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var out []LogRow
	for rows.Next() {
		var r LogRow
		var atMs int64
		if err := rows.Scan(&r.ID, &r.Session, &r.Seq, &atMs, &r.Kind, &r.Target, &r.RawTarget,
			&r.Actuator, &r.Diff, &r.HoldMs, &r.Caught, &r.CatchNo, &r.Message); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки журнала: %w", err)
		}
		r.At = time.UnixMilli(atMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionStats итоги сессии
type SessionStats struct {
	Session  string
	Presses  int
	Releases int
	Catches  int
	FirstAt  time.Time
	LastAt   time.Time
}

// Sessions сводка по последним сессиям
func (h *DatabaseManager) Sessions(ctx context.Context, limit int) ([]SessionStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.db.QueryContext(ctx, `SELECT session,
			SUM(CASE WHEN kind = 'press' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind IN ('release', 'release_aligned') THEN 1 ELSE 0 END),
			SUM(CASE WHEN caught THEN 1 ELSE 0 END),
			MIN(at_ms), MAX(at_ms)
		FROM action_log GROUP BY session ORDER BY MAX(at_ms) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессий: %w", err)
	}
	defer rows.Close()

	var out []SessionStats
	for rows.Next() {
		var s SessionStats
		var first, last int64
		if err := rows.Scan(&s.Session, &s.Presses, &s.Releases, &s.Catches, &first, &last); err != nil {
			return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
		}
		s.FirstAt, s.LastAt = time.UnixMilli(first), time.UnixMilli(last)
		out = append(out, s)
	}
	return out, rows.Err()
}
