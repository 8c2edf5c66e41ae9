package main

import (
	"context"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"rybak/internal/actionlog"
	"rybak/internal/arduino"
	"rybak/internal/config"
	"rybak/internal/database"
	"rybak/internal/detector"
	"rybak/internal/interrupt"
	"rybak/internal/keyboard"
	"rybak/internal/logger"
	"rybak/internal/metrics"
	"rybak/internal/screen"
	"rybak/internal/scripts/autofish"
	"rybak/internal/timeutil"
)

func main() {
	// init конфигурации
	c, err := config.InitConfig()
	if err != nil {
		log.Fatal("Ошибка конфигурации: ", err)
	}

	// Инициализация логгера
	loggerManager, err := logger.NewLoggerManager(c.LogFilePath)
	if err != nil {
		log.Fatal("Error initializing logger: ", err)
	}
	defer loggerManager.Close()
	loggerManager.SetLevel(logger.ParseLevel(c.LogLevel))

	loggerManager.Info("🚀 Запуск приложения РЫБАК")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Журнал действий: консоль в цвете, файл без дублирования в консоль
	session := uuid.NewString()
	actionLog := actionlog.New(session,
		actionlog.NewConsoleSink(nil),
		actionlog.LoggerSink{Logger: loggerManager.FileOnly()},
	)
	actionLog.OnSinkError = func(err error) {
		loggerManager.Debug("журнал: %v", err)
	}
	loggerManager.Info("📒 Сессия %s", session)

	// База данных необязательна
	var remote autofish.RemoteControl
	var sink *database.ActionSink
	if c.DBDriver != "" && c.DBDriver != "none" {
		db, err := database.Open(ctx, c.DBDriver, c.DBDSN)
		if err != nil {
			loggerManager.LogError(err, "Error connecting to database")
			return
		}
		defer db.Close()

		dbManager, err := database.NewDatabaseManager(db, c.DBDriver, loggerManager)
		if err != nil {
			loggerManager.LogError(err, "Error creating database manager")
			return
		}
		if err := dbManager.EnsureSchema(ctx); err != nil {
			loggerManager.LogError(err, "Error creating schema")
			return
		}
		loggerManager.Info("✅ Успешное подключение к базе данных (%s)", c.DBDriver)

		sink = dbManager.NewActionSink(256)
		actionLog.AddSink(sink)
		defer dbManager.WaitForAsyncOperations()
		defer sink.Close()
		remote = dbManager
	}

	actuator, closeActuator, err := newActuator(c, loggerManager)
	if err != nil {
		loggerManager.LogError(err, "Error creating actuator")
		return
	}
	defer closeActuator()

	capturer, err := newCapturer(c, loggerManager)
	if err != nil {
		loggerManager.LogError(err, "Ошибка инициализации области захвата")
		return
	}

	fish, err := detector.NewTemplateMatcher("fish", c.Templates.Fish, c.Threshold)
	if err != nil {
		loggerManager.LogError(err, "Ошибка загрузки шаблона рыбы")
		return
	}
	defer fish.Close()
	box, err := detector.NewTemplateMatcher("box", c.Templates.Box, c.Threshold)
	if err != nil {
		loggerManager.LogError(err, "Ошибка загрузки шаблона поплавка")
		return
	}
	defer box.Close()

	var dumper *detector.FrameDumper
	if c.DebugFramesDir != "" {
		dumper, err = detector.NewFrameDumper(c.DebugFramesDir, c.DebugFramesMinDistance)
		if err != nil {
			loggerManager.LogError(err, "Ошибка папки отладочных кадров")
			return
		}
	}

	// Живые настройки: горячие клавиши, удалённые действия и правка config.yaml
	runtime := config.NewRuntime(c)
	runtime.Watch(viper.GetViper(), loggerManager)

	m := metrics.New()
	if sink != nil {
		m.RegisterSinkDrops(sink.Dropped)
	}
	bot, err := autofish.New(autofish.Deps{
		Config:   c,
		Runtime:  runtime,
		Capturer: capturer,
		Fish:     fish,
		Box:      box,
		Actuator: actuator,
		Log:      actionLog,
		Logger:   loggerManager,
		Metrics:  m,
		Clock:    timeutil.RealClock{},
		Dumper:   dumper,
		Remote:   remote,
	})
	if err != nil {
		loggerManager.LogError(err, "Error creating bot")
		return
	}

	// Инициализация менеджера прерываний
	interruptManager := interrupt.NewInterruptManager(loggerManager)
	bot.OnRunningChange = interruptManager.SetScriptRunning
	if err := interruptManager.StartMonitoring(); err != nil {
		loggerManager.Warn("⚠️ Горячие клавиши недоступны: %v", err)
	}
	loggerManager.Info("⏸️ Программа готова к работе. Shift+Enter для запуска и остановки, Q или CapsLock для остановки")
	loggerManager.Info("🔥 F7/F8 допуск -/+, F9 предсказание, F10 сохранить журнал, F11 очистить")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Supervise(gctx, interruptManager.Commands())
	})
	if c.MetricsAddr != "" {
		g.Go(func() error {
			loggerManager.Info("📈 Метрики на http://%s/metrics", c.MetricsAddr)
			return m.Serve(gctx, c.MetricsAddr)
		})
	}

	if err := g.Wait(); err != nil {
		loggerManager.LogError(err, "Ошибка работы")
	}

	if path, err := bot.SaveLog(); err != nil {
		loggerManager.LogError(err, "Журнал не сохранён")
	} else {
		loggerManager.Info("💾 Журнал сохранён: %s (поймано: %d)", path, actionLog.Catches())
	}
	loggerManager.Info("👋 Завершение работы")
}

// newActuator клавиша через Arduino или напрямую через robotgo
func newActuator(c config.Config, loggerManager *logger.LoggerManager) (autofish.Actuator, func(), error) {
	if c.Actuator == "robotgo" {
		loggerManager.Info("⌨️ Клавиша %q через robotgo", c.Key)
		return keyboard.NewActuator(c.Key), func() {}, nil
	}

	// Инициализация порта с использованием значений из конфигурации
	portObj, err := arduino.InitializePort(c.Port, c.BaudRate)
	if err != nil {
		return nil, nil, err
	}
	loggerManager.Info("🔌 Arduino на %s (%d бод), клавиша %q", c.Port, c.BaudRate, c.Key)
	closePort := func() {
		if err := portObj.Close(); err != nil {
			loggerManager.LogError(err, "Error closing port")
		}
	}
	return arduino.NewKeyActuator(portObj, c.Key, time.Duration(c.AckTimeoutMs)*time.Millisecond, loggerManager), closePort, nil
}

// newCapturer область захвата; при auto_detect_window она считается от найденного окна игры
func newCapturer(c config.Config, loggerManager *logger.LoggerManager) (screen.Capturer, error) {
	rel := image.Rect(c.Capture.X, c.Capture.Y, c.Capture.X+c.Capture.Width, c.Capture.Y+c.Capture.Height)
	region := rel

	if c.AutoDetectWindow {
		full, err := screen.CaptureFullScreen()
		if err != nil {
			return nil, err
		}
		window, err := screen.LocateGameWindow(full, c.WindowTopOffset)
		if err != nil {
			return nil, err
		}
		loggerManager.Info("🪟 Окно игры: %dx%d в (%d, %d)", window.Width, window.Height, window.X, window.Y)
		region = screen.ResolveRegion(window, rel)
	}

	loggerManager.Info("📷 Область захвата: %v", region)
	return screen.NewRegionCapturer(region)
}
