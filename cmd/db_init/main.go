package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"rybak/internal/config"
	"rybak/internal/database"
	"rybak/internal/logger"
)

func main() {
	c, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	if c.DBDriver == "" || c.DBDriver == "none" {
		log.Fatalf("db_driver не задан в config.yaml (mysql или sqlite)")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, c.DBDriver, c.DBDSN)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе: %v", err)
	}
	defer db.Close()

	m, err := database.NewDatabaseManager(db, c.DBDriver, logger.NewWriterLogger(os.Stderr, nil))
	if err != nil {
		log.Fatalf("Ошибка: %v", err)
	}

	if err := m.EnsureSchema(ctx); err != nil {
		log.Fatalf("Ошибка создания таблиц: %v", err)
	}
	fmt.Println("Таблицы action_log, status и actions созданы")

	if err := m.UpdateStatus(ctx, "ready"); err != nil {
		log.Fatalf("Ошибка записи статуса: %v", err)
	}
	fmt.Println("Начальный статус: ready")
}
