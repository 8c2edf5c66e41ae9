package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"rybak/internal/logger"
)

// dialect различия DDL между MySQL и SQLite
type dialect struct {
	driver        string
	autoIncrement string
	text          string
}

var dialects = map[string]dialect{
	"mysql":  {driver: "mysql", autoIncrement: "BIGINT AUTO_INCREMENT PRIMARY KEY", text: "VARCHAR(255)"},
	"sqlite": {driver: "sqlite", autoIncrement: "INTEGER PRIMARY KEY AUTOINCREMENT", text: "TEXT"},
}

// DatabaseManager содержит функции для работы с базой данных
type DatabaseManager struct {
	db      *sql.DB
	dialect dialect
	logger  *logger.LoggerManager
	wg      sync.WaitGroup // для ожидания завершения асинхронных операций
}

// Open подключается к базе и проверяет соединение; driver mysql или sqlite
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("неизвестный драйвер БД %q", driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	if driver == "sqlite" {
		// SQLite не любит параллельную запись
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}
	return db, nil
}

// NewDatabaseManager создает новый экземпляр DatabaseManager
func NewDatabaseManager(db *sql.DB, driver string, loggerManager *logger.LoggerManager) (*DatabaseManager, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("неизвестный драйвер БД %q", driver)
	}
	return &DatabaseManager{db: db, dialect: d, logger: loggerManager}, nil
}

// DB соединение
func (h *DatabaseManager) DB() *sql.DB { return h.db }

// EnsureSchema создает таблицы, если их нет
func (h *DatabaseManager) EnsureSchema(ctx context.Context) error {
	d := h.dialect
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS action_log (
			id %s,
			session %s NOT NULL,
			seq BIGINT NOT NULL,
			at_ms BIGINT NOT NULL,
			kind %s NOT NULL,
			target DOUBLE,
			raw_target DOUBLE,
			actuator DOUBLE,
			diff DOUBLE,
			hold_ms BIGINT NOT NULL DEFAULT 0,
			caught BOOLEAN NOT NULL DEFAULT FALSE,
			catch_no INT NOT NULL DEFAULT 0,
			message TEXT NOT NULL
		)`, d.autoIncrement, d.text, d.text),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS status (
			id %s,
			current_status %s NOT NULL,
			updated_ms BIGINT NOT NULL
		)`, d.autoIncrement, d.text),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS actions (
			id %s,
			action %s NOT NULL,
			created_ms BIGINT NOT NULL,
			executed BOOLEAN NOT NULL DEFAULT FALSE
		)`, d.autoIncrement, d.text),
	}
	for _, s := range stmts {
		if _, err := h.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ошибка создания таблицы: %w", err)
		}
	}
	return nil
}

// WaitForAsyncOperations ожидает завершения всех асинхронных операций сохранения
func (h *DatabaseManager) WaitForAsyncOperations() {
	h.logger.Info("⏳ Ожидаем завершения асинхронных операций сохранения...")
	h.wg.Wait()
	h.logger.Info("✅ Все асинхронные операции сохранения завершены")
}

var errQueueFull = errors.New("очередь записи в БД переполнена")
