// Package metrics счётчики бота для Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics собственный реестр, чтобы тесты не делили глобальный
type Metrics struct {
	Registry   *prometheus.Registry
	Decisions  *prometheus.CounterVec
	Catches    prometheus.Counter
	Detections *prometheus.CounterVec
	TickErrors *prometheus.CounterVec
	Diff       prometheus.Gauge
	Tolerance  prometheus.Gauge
	Pressed    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rybak_decisions_total",
			Help: "Переходы контроллера по типу.",
		}, []string{"kind"}),
		Catches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rybak_catches_total",
			Help: "Пойманные рыбы.",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rybak_detections_total",
			Help: "Результаты поиска шаблонов.",
		}, []string{"entity", "found"}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rybak_tick_errors_total",
			Help: "Тики без решения по причине.",
		}, []string{"reason"}),
		Diff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rybak_alignment_diff",
			Help: "Последняя разница цель минус поплавок.",
		}),
		Tolerance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rybak_tolerance",
			Help: "Текущий допуск.",
		}),
		Pressed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rybak_key_pressed",
			Help: "1 если клавиша зажата.",
		}),
	}
	m.Registry.MustRegister(
		m.Decisions, m.Catches, m.Detections, m.TickErrors, m.Diff, m.Tolerance, m.Pressed,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveDetection учитывает результат поиска
func (m *Metrics) ObserveDetection(entity string, found bool) {
	label := "false"
	if found {
		label = "true"
	}
	m.Detections.WithLabelValues(entity, label).Inc()
}

// RegisterSinkDrops экспортирует число записей журнала, потерянных при переполнении очереди БД
func (m *Metrics) RegisterSinkDrops(dropped func() int64) {
	m.Registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "rybak_action_log_dropped_total",
		Help: "Записи журнала, не попавшие в БД из-за переполнения очереди.",
	}, func() float64 { return float64(dropped()) }))
}

// SetPressed состояние клавиши
func (m *Metrics) SetPressed(v bool) {
	if v {
		m.Pressed.Set(1)
		return
	}
	m.Pressed.Set(0)
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve отдаёт /metrics до отмены ctx
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
