package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"rybak/internal/logger"
)

// Runtime настройки, которые меняются на лету и читаются на каждом тике
type Runtime struct {
	tolerance  atomic.Float64
	prediction atomic.Bool

	mu       sync.Mutex
	onChange func(tolerance float64, prediction bool)
}

// NewRuntime начальные значения из конфига
func NewRuntime(c Config) *Runtime {
	r := &Runtime{}
	r.tolerance.Store(c.Tolerance)
	r.prediction.Store(c.PredictionEnabled)
	return r
}

// OnChange вызывается после каждого изменения настроек, из горячих клавиш, удалённых команд и config.yaml
func (r *Runtime) OnChange(fn func(tolerance float64, prediction bool)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Runtime) Tolerance() float64      { return r.tolerance.Load() }
func (r *Runtime) PredictionEnabled() bool { return r.prediction.Load() }

// SetTolerance не проверяет значение: некорректный допуск отклонит контроллер
func (r *Runtime) SetTolerance(v float64) {
	r.tolerance.Store(v)
	r.notify()
}

// AdjustTolerance сдвигает допуск на delta, не опускаясь ниже 1
func (r *Runtime) AdjustTolerance(delta float64) float64 {
	for {
		old := r.tolerance.Load()
		next := old + delta
		if next < 1 {
			next = 1
		}
		if r.tolerance.CAS(old, next) {
			r.notify()
			return next
		}
	}
}

func (r *Runtime) SetPrediction(enabled bool) {
	r.prediction.Store(enabled)
	r.notify()
}

// TogglePrediction возвращает новое значение
func (r *Runtime) TogglePrediction() bool {
	next := !r.prediction.Toggle()
	r.notify()
	return next
}

func (r *Runtime) notify() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(r.Tolerance(), r.PredictionEnabled())
	}
}

// Watch перечитывает tolerance и prediction_enabled при изменении config.yaml
func (r *Runtime) Watch(v *viper.Viper, loggerManager *logger.LoggerManager) {
	v.OnConfigChange(func(e fsnotify.Event) {
		r.Apply(v)
		loggerManager.Info("🔄 Конфигурация изменена (%s): tolerance=%.1f prediction=%t",
			e.Name, r.Tolerance(), r.PredictionEnabled())
	})
	v.WatchConfig()
}

// Apply берёт живые настройки из viper
func (r *Runtime) Apply(v *viper.Viper) {
	r.tolerance.Store(v.GetFloat64("tolerance"))
	r.prediction.Store(v.GetBool("prediction_enabled"))
	r.notify()
}
