package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"rybak/internal/config"
	"rybak/internal/database"
	"rybak/internal/logger"
	"rybak/internal/scripts/autofish"
)

var (
	driver string
	dsn    string
)

func main() {
	// значения по умолчанию из config.yaml, флаги их перекрывают
	c, err := config.InitConfig()
	if err != nil {
		log.Printf("Конфигурация: %v", err)
	}

	root := &cobra.Command{
		Use:          "status_manager",
		Short:        "Статус бота и очередь удалённых действий",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&driver, "driver", c.DBDriver, "mysql или sqlite")
	root.PersistentFlags().StringVar(&dsn, "dsn", c.DBDSN, "строка подключения")

	root.AddCommand(
		&cobra.Command{
			Use:   "status <новый_статус>",
			Short: "обновить статус",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(ctx context.Context, m *database.DatabaseManager, args []string) error {
				if err := m.UpdateStatus(ctx, args[0]); err != nil {
					return fmt.Errorf("ошибка обновления статуса: %w", err)
				}
				fmt.Printf("Статус обновлен на: %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "action <действие>",
			Short: "добавить действие: start, stop, toggle, save_log, clear, tolerance:<n>, prediction:on|off",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(ctx context.Context, m *database.DatabaseManager, args []string) error {
				if _, err := autofish.ParseRemoteAction(args[0]); err != nil {
					return err
				}
				if err := m.AddAction(ctx, args[0]); err != nil {
					return fmt.Errorf("ошибка добавления действия: %w", err)
				}
				fmt.Printf("Действие добавлено: %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "показать текущий статус и последние действия",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, m *database.DatabaseManager, _ []string) error {
				status, err := m.GetStatus(ctx)
				if err != nil {
					return fmt.Errorf("ошибка получения статуса: %w", err)
				}
				actions, err := m.RecentActions(ctx, 10)
				if err != nil {
					return fmt.Errorf("ошибка получения действий: %w", err)
				}

				fmt.Printf("Текущий статус: %s (обновлен: %s)\n", status.CurrentStatus, status.UpdatedAt.Format("2006-01-02 15:04:05"))
				fmt.Println("Последние действия:")
				for _, a := range actions {
					mark := " "
					if a.Executed {
						mark = "✓"
					}
					fmt.Printf("  %s %s (%s)\n", mark, a.Action, a.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "sessions",
			Short: "сводка по последним сессиям",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, m *database.DatabaseManager, _ []string) error {
				stats, err := m.Sessions(ctx, 10)
				if err != nil {
					return fmt.Errorf("ошибка получения сессий: %w", err)
				}
				for _, s := range stats {
					fmt.Printf("%s  %s .. %s  нажатий: %d  отпусканий: %d  поймано: %d\n",
						s.Session, s.FirstAt.Format("01-02 15:04:05"), s.LastAt.Format("15:04:05"),
						s.Presses, s.Releases, s.Catches)
				}
				return nil
			}),
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// withDB открывает базу на время одной команды
func withDB(fn func(ctx context.Context, m *database.DatabaseManager, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if driver == "" || driver == "none" {
			return fmt.Errorf("база данных не настроена: укажите --driver и --dsn")
		}

		db, err := database.Open(ctx, driver, dsn)
		if err != nil {
			return fmt.Errorf("ошибка подключения к базе данных: %w", err)
		}
		defer db.Close()

		m, err := database.NewDatabaseManager(db, driver, logger.NewWriterLogger(os.Stderr, nil))
		if err != nil {
			return err
		}
		if err := m.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ошибка создания таблиц: %w", err)
		}
		return fn(ctx, m, args)
	}
}
