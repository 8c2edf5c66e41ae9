// Package autofish связывает захват экрана, поиск шаблонов, фильтр и контроллер в два цикла:
// цикл кадров пишет позиции на доску, цикл управления читает их и жмёт клавишу.
package autofish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"rybak/internal/actionlog"
	"rybak/internal/blackboard"
	"rybak/internal/config"
	"rybak/internal/controller"
	"rybak/internal/detector"
	"rybak/internal/filter"
	"rybak/internal/logger"
	"rybak/internal/metrics"
	"rybak/internal/screen"
	"rybak/internal/timeutil"
)

// Actuator зажимает и отпускает клавишу
type Actuator interface {
	Press() error
	Release() error
}

// Deps всё, что нужно боту; Dumper и Remote необязательны
type Deps struct {
	Config   config.Config
	Runtime  *config.Runtime
	Capturer screen.Capturer
	Fish     detector.Detector
	Box      detector.Detector
	Actuator Actuator
	Log      *actionlog.Log
	Logger   *logger.LoggerManager
	Metrics  *metrics.Metrics
	Clock    timeutil.Clock
	Dumper   *detector.FrameDumper
	Remote   RemoteControl
}

// Bot один сеанс рыбалки за раз; Run можно вызывать повторно после остановки
type Bot struct {
	deps   Deps
	params controller.Params
	board  *blackboard.Board

	// принадлежит циклу кадров
	filter      *filter.Filter
	resetFilter atomic.Bool
	captureFail bool

	// принадлежит циклу управления
	state         controller.ActuatorState
	lastPosLog    time.Time
	lastTickError error

	fishFound atomic.Int64
	boxFound  atomic.Int64

	// последние записанные в журнал живые настройки
	noteTolerance  atomic.Float64
	notePrediction atomic.Bool

	// OnRunningChange вызывается при старте и остановке сеанса
	OnRunningChange func(running bool)
}

// New проверяет зависимости и собирает бота
func New(deps Deps) (*Bot, error) {
	switch {
	case deps.Runtime == nil:
		return nil, errors.New("не задан runtime")
	case deps.Capturer == nil:
		return nil, errors.New("не задан источник кадров")
	case deps.Fish == nil || deps.Box == nil:
		return nil, errors.New("не заданы детекторы")
	case deps.Actuator == nil:
		return nil, errors.New("не задан актуатор")
	case deps.Log == nil || deps.Logger == nil || deps.Metrics == nil:
		return nil, errors.New("не заданы журнал, логгер или метрики")
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}
	b := &Bot{
		deps:   deps,
		params: deps.Config.ControllerParams(),
		board:  blackboard.New(),
		filter: filter.New(deps.Config.FilterConfig()),
	}
	b.noteTolerance.Store(deps.Runtime.Tolerance())
	b.notePrediction.Store(deps.Runtime.PredictionEnabled())
	deps.Runtime.OnChange(b.settingsChanged)
	return b, nil
}

// settingsChanged пишет в журнал только то, что действительно изменилось
func (b *Bot) settingsChanged(tolerance float64, prediction bool) {
	now := b.deps.Clock.Now()
	if old := b.noteTolerance.Swap(tolerance); old != tolerance {
		b.deps.Log.Note(now, "[AUTO] Tolerance: %.0f", tolerance)
	}
	if old := b.notePrediction.Swap(prediction); old != prediction {
		b.deps.Log.Note(now, "[AUTO] Prediction: %s", onOff(prediction))
	}
}

// Board доска позиций для чтения снаружи
func (b *Bot) Board() *blackboard.Board { return b.board }

// Run крутит цикл кадров и цикл управления до отмены ctx, затем отпускает клавишу
func (b *Bot) Run(ctx context.Context) error {
	cfg := b.deps.Config
	b.fishFound.Store(0)
	b.boxFound.Store(0)
	b.deps.Log.Note(b.deps.Clock.Now(), "[AUTO] Started monitoring | Tol:%.0f | Pred:%t",
		b.deps.Runtime.Tolerance(), b.deps.Runtime.PredictionEnabled())
	b.deps.Logger.Info("🎣 Рыбалка запущена")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return every(gctx, time.Duration(cfg.CaptureIntervalMs)*time.Millisecond, b.DetectOnce)
	})
	g.Go(func() error {
		return every(gctx, time.Duration(cfg.ControlIntervalMs)*time.Millisecond, b.Tick)
	})
	err := g.Wait()

	b.stop()
	return err
}

// stop отпускает клавишу и пишет итог сеанса; вызывается после остановки обоих циклов
func (b *Bot) stop() {
	now := b.deps.Clock.Now()
	next, d, ok := controller.ForceRelease(b.state, now)
	if ok {
		if err := b.deps.Actuator.Release(); err != nil {
			b.deps.Logger.LogError(err, "❌ Ошибка отпускания клавиши при остановке")
		}
		b.deps.Log.Record(d)
		b.deps.Metrics.Decisions.WithLabelValues(d.Kind.String()).Inc()
	}
	b.state = next
	b.board.SetPressed(false)
	b.deps.Metrics.SetPressed(false)

	b.deps.Log.Note(now, "[AUTO] Stopped | Fish: %d | Box: %d | Caught: %d",
		b.fishFound.Load(), b.boxFound.Load(), b.deps.Log.Catches())
	b.deps.Logger.Info("🛑 Рыбалка остановлена")
}

// Clear сбрасывает журнал, историю фильтра и доску
func (b *Bot) Clear() {
	b.deps.Log.Clear()
	b.resetFilter.Store(true)
	b.board.Clear()
	b.fishFound.Store(0)
	b.boxFound.Store(0)
}

// SaveLog пишет журнал в текстовый файл
func (b *Bot) SaveLog() (string, error) {
	path, err := b.deps.Log.SaveText(b.deps.Config.LogDir, b.deps.Clock.Now())
	if err != nil {
		return "", fmt.Errorf("ошибка сохранения журнала: %w", err)
	}
	return path, nil
}

// every вызывает fn с периодом interval до отмены ctx
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
