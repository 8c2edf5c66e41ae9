package autofish

import (
	"errors"
	"fmt"
	"math"

	"rybak/internal/blackboard"
	"rybak/internal/controller"
)

// Tick один шаг управления по последнему снимку доски
func (b *Bot) Tick() {
	now := b.deps.Clock.Now()
	snap := b.board.Load()

	p := b.params
	p.Tolerance = b.deps.Runtime.Tolerance()
	b.deps.Metrics.Tolerance.Set(p.Tolerance)

	b.logPosition(snap)

	next, d, err := controller.Step(p, b.state, controller.Input{
		Target:    snap.Target,
		RawTarget: snap.RawTarget,
		Actuator:  snap.Actuator,
		Now:       now,
	})
	if err != nil {
		b.tickError(err)
		return
	}
	b.lastTickError = nil
	b.deps.Metrics.Diff.Set(d.Diff)

	if d.Kind.IsTransition() {
		b.apply(d)
	}
	b.state = next
	b.board.SetPressed(next.Pressed)
	b.deps.Metrics.SetPressed(next.Pressed)
}

// apply отправляет переход на клавишу и в журнал; состояние контроллера меняется даже при ошибке отправки
func (b *Bot) apply(d controller.Decision) {
	var err error
	switch d.Kind {
	case controller.Press:
		err = b.deps.Actuator.Press()
	case controller.Release, controller.ReleaseAligned:
		err = b.deps.Actuator.Release()
	}
	if err != nil {
		b.deps.Logger.LogError(err, "❌ Ошибка отправки клавиши ("+d.Kind.String()+")")
	}

	b.deps.Log.Record(d)
	b.deps.Metrics.Decisions.WithLabelValues(d.Kind.String()).Inc()
	if d.Caught {
		b.deps.Metrics.Catches.Inc()
	}
}

func (b *Bot) tickError(err error) {
	reason := "other"
	switch {
	case errors.Is(err, controller.ErrMissingInput):
		reason = "missing_input"
	case errors.Is(err, controller.ErrInvalidConfiguration):
		reason = "invalid_configuration"
	}
	b.deps.Metrics.TickErrors.WithLabelValues(reason).Inc()

	// пропуск кадра обычное дело, о неверных настройках пишем один раз
	if reason != "missing_input" && (b.lastTickError == nil || b.lastTickError.Error() != err.Error()) {
		b.deps.Logger.Warn("⚠️ Контроллер не работает: %v", err)
	}
	b.lastTickError = err
}

// logPosition отладочная строка позиций не чаще position_log_every_ms
func (b *Bot) logPosition(snap blackboard.Snapshot) {
	every := b.deps.Config.PositionLogEveryMs
	if every <= 0 {
		return
	}
	now := b.deps.Clock.Now()
	if !b.lastPosLog.IsZero() && now.Sub(b.lastPosLog).Milliseconds() < int64(every) {
		return
	}
	b.lastPosLog = now

	key := "FREE"
	if snap.Pressed {
		key = "HELD"
	}
	b.deps.Logger.Debug("[POS] Fish: %s | Box: %s | Pred: %s | Vel: %s | Key: %s",
		pos(snap.RawTarget), pos(snap.Actuator), pos(snap.Target), pos(snap.Velocity), key)
}

func pos(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}
