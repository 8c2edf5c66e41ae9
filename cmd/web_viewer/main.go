package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"rybak/internal/config"
	"rybak/internal/database"
	"rybak/internal/logger"
)

func main() {
	// Получаем порт из переменной окружения
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Получаем хост из переменной окружения
	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	// Подключение как у бота; DB_DRIVER и DB_DSN перекрывают config.yaml
	c, err := config.InitConfig()
	if err != nil {
		log.Printf("Конфигурация: %v", err)
	}
	driver, dsn := c.DBDriver, c.DBDSN
	if v := os.Getenv("DB_DRIVER"); v != "" {
		driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		dsn = v
	}

	ctx := context.Background()
	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	dbManager, err := database.NewDatabaseManager(db, driver, logger.NewWriterLogger(os.Stderr, nil))
	if err != nil {
		log.Fatalf("Ошибка: %v", err)
	}
	if err := dbManager.EnsureSchema(ctx); err != nil {
		log.Fatalf("Ошибка создания таблиц: %v", err)
	}
	log.Printf("Успешно подключились к базе данных (%s)", driver)

	srv := &http.Server{
		Addr:              host + ":" + port,
		Handler:           newServer(dbManager).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Printf("🚀 РЫБАК viewer запущен на порту %s\n", port)
	fmt.Printf("🌐 Откройте http://localhost:%s в браузере\n", port)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
