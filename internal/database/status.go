package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status последний статус бота
type Status struct {
	ID            int64
	CurrentStatus string
	UpdatedAt     time.Time
}

// Action команда, поставленная в очередь удалённо
type Action struct {
	ID        int64
	Action    string
	CreatedAt time.Time
	Executed  bool
}

// UpdateStatus записывает новый статус
func (h *DatabaseManager) UpdateStatus(ctx context.Context, status string) error {
	_, err := h.db.ExecContext(ctx, `INSERT INTO status (current_status, updated_ms) VALUES (?, ?)`,
		status, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	return nil
}

// GetStatus последний статус; пустой Status, если статусов ещё нет
func (h *DatabaseManager) GetStatus(ctx context.Context) (Status, error) {
	var s Status
	var ms int64
	err := h.db.QueryRowContext(ctx, `SELECT id, current_status, updated_ms FROM status ORDER BY id DESC LIMIT 1`).
		Scan(&s.ID, &s.CurrentStatus, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("ошибка чтения статуса: %w", err)
	}
	s.UpdatedAt = time.UnixMilli(ms)
	return s, nil
}

// AddAction ставит действие в очередь
func (h *DatabaseManager) AddAction(ctx context.Context, action string) error {
	_, err := h.db.ExecContext(ctx, `INSERT INTO actions (action, created_ms, executed) VALUES (?, ?, ?)`,
		action, time.Now().UnixMilli(), false)
	if err != nil {
		return fmt.Errorf("ошибка добавления действия: %w", err)
	}
	return nil
}

// GetLatestUnexecutedAction самое старое невыполненное действие; nil, если очередь пуста
func (h *DatabaseManager) GetLatestUnexecutedAction(ctx context.Context) (*Action, error) {
	var a Action
	var ms int64
	err := h.db.QueryRowContext(ctx,
		`SELECT id, action, created_ms FROM actions WHERE executed = ? ORDER BY id ASC LIMIT 1`, false).
		Scan(&a.ID, &a.Action, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения действий: %w", err)
	}
	a.CreatedAt = time.UnixMilli(ms)
	return &a, nil
}

// MarkActionAsExecuted помечает действие выполненным
func (h *DatabaseManager) MarkActionAsExecuted(ctx context.Context, id int64) error {
	if _, err := h.db.ExecContext(ctx, `UPDATE actions SET executed = ? WHERE id = ?`, true, id); err != nil {
		return fmt.Errorf("ошибка пометки действия %d: %w", id, err)
	}
	return nil
}

// RecentActions последние действия, новые первыми
func (h *DatabaseManager) RecentActions(ctx context.Context, limit int) ([]Action, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, action, created_ms, executed FROM actions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения действий: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var ms int64
		if err := rows.Scan(&a.ID, &a.Action, &ms, &a.Executed); err != nil {
			return nil, fmt.Errorf("ошибка чтения действия: %w", err)
		}
		a.CreatedAt = time.UnixMilli(ms)
		out = append(out, a)
	}
	return out, rows.Err()
}
