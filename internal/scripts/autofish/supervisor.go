package autofish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rybak/internal/database"
	"rybak/internal/interrupt"
)

// RemoteControl очередь действий и статус в базе
type RemoteControl interface {
	GetLatestUnexecutedAction(ctx context.Context) (*database.Action, error)
	MarkActionAsExecuted(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, status string) error
}

// Request команда с необязательным значением
type Request struct {
	Command   interrupt.Command
	Tolerance float64
	Enabled   bool
}

// ParseRemoteAction разбирает строку из таблицы actions:
// start, stop, toggle, save_log, clear, tolerance:<n>, prediction:on|off
func ParseRemoteAction(action string) (Request, error) {
	name, value, hasValue := strings.Cut(strings.ToLower(strings.TrimSpace(action)), ":")
	switch name {
	case "start":
		return Request{Command: interrupt.CmdStart}, nil
	case "stop":
		return Request{Command: interrupt.CmdStop}, nil
	case "toggle":
		return Request{Command: interrupt.CmdToggle}, nil
	case "save_log":
		return Request{Command: interrupt.CmdSaveLog}, nil
	case "clear":
		return Request{Command: interrupt.CmdClear}, nil
	case "tolerance":
		if !hasValue {
			return Request{}, errors.New("tolerance без значения")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Request{}, fmt.Errorf("неверное значение tolerance %q: %w", value, err)
		}
		return Request{Command: interrupt.CmdSetTolerance, Tolerance: v}, nil
	case "prediction":
		switch strings.TrimSpace(value) {
		case "on", "true", "1":
			return Request{Command: interrupt.CmdSetPrediction, Enabled: true}, nil
		case "off", "false", "0":
			return Request{Command: interrupt.CmdSetPrediction, Enabled: false}, nil
		}
		return Request{}, fmt.Errorf("неверное значение prediction %q", value)
	}
	return Request{}, fmt.Errorf("неизвестное действие %q", action)
}

// session запущенный сеанс
type session struct {
	cancel context.CancelFunc
	done   chan error
}

// Supervise принимает команды с клавиатуры и из базы до отмены ctx; сеанс рыбалки запускается и останавливается здесь
func (b *Bot) Supervise(ctx context.Context, commands <-chan interrupt.Command) error {
	var current *session
	b.updateStatus(ctx, "ready")

	var poll <-chan time.Time
	if b.deps.Remote != nil && b.deps.Config.RemotePollMs > 0 {
		ticker := time.NewTicker(time.Duration(b.deps.Config.RemotePollMs) * time.Millisecond)
		defer ticker.Stop()
		poll = ticker.C
	}

	start := func() {
		if current != nil {
			return
		}
		runCtx, cancel := context.WithCancel(ctx)
		s := &session{cancel: cancel, done: make(chan error, 1)}
		go func() { s.done <- b.Run(runCtx) }()
		current = s
		b.setRunning(ctx, true)
	}
	stop := func() {
		if current == nil {
			return
		}
		current.cancel()
		if err := <-current.done; err != nil {
			b.deps.Logger.LogError(err, "❌ Сеанс завершился с ошибкой")
		}
		current = nil
		b.setRunning(ctx, false)
	}

	handle := func(r Request) {
		switch r.Command {
		case interrupt.CmdToggle:
			if current == nil {
				start()
			} else {
				stop()
			}
		case interrupt.CmdStart:
			start()
		case interrupt.CmdStop:
			stop()
		default:
			b.Apply(r)
		}
	}

	for {
		var done <-chan error
		if current != nil {
			done = current.done
		}

		select {
		case <-ctx.Done():
			if current != nil {
				stop()
			} else {
				b.updateStatus(context.WithoutCancel(ctx), "stopped")
			}
			return nil

		case cmd := <-commands:
			handle(Request{Command: cmd})

		case err := <-done:
			// сеанс закончился сам
			if err != nil {
				b.deps.Logger.LogError(err, "❌ Сеанс завершился с ошибкой")
			}
			current.cancel()
			current = nil
			b.setRunning(ctx, false)

		case <-poll:
			if r, ok := b.pollRemote(ctx); ok {
				handle(r)
			}
		}
	}
}

// Apply команды, не требующие запуска или остановки сеанса
func (b *Bot) Apply(r Request) {
	rt := b.deps.Runtime
	switch r.Command {
	case interrupt.CmdToleranceDown:
		rt.AdjustTolerance(-1)
	case interrupt.CmdToleranceUp:
		rt.AdjustTolerance(1)
	case interrupt.CmdSetTolerance:
		rt.SetTolerance(r.Tolerance)
	case interrupt.CmdTogglePrediction:
		rt.TogglePrediction()
	case interrupt.CmdSetPrediction:
		rt.SetPrediction(r.Enabled)
	case interrupt.CmdSaveLog:
		path, err := b.SaveLog()
		if err != nil {
			b.deps.Logger.LogError(err, "❌ Журнал не сохранён")
			return
		}
		b.deps.Logger.Info("💾 Журнал сохранён: %s", path)
	case interrupt.CmdClear:
		b.Clear()
		b.deps.Logger.Info("🧹 Журнал очищен")
	default:
		b.deps.Logger.Warn("⚠️ Команда %s здесь не обрабатывается", r.Command)
	}
}

// pollRemote берёт самое старое невыполненное действие и помечает его выполненным
func (b *Bot) pollRemote(ctx context.Context) (Request, bool) {
	action, err := b.deps.Remote.GetLatestUnexecutedAction(ctx)
	if err != nil {
		b.deps.Logger.LogError(err, "❌ Ошибка чтения действий")
		return Request{}, false
	}
	if action == nil {
		return Request{}, false
	}
	if err := b.deps.Remote.MarkActionAsExecuted(ctx, action.ID); err != nil {
		b.deps.Logger.LogError(err, "❌ Ошибка отметки действия")
		return Request{}, false
	}

	r, err := ParseRemoteAction(action.Action)
	if err != nil {
		b.deps.Logger.Warn("⚠️ Пропущено действие #%d: %v", action.ID, err)
		return Request{}, false
	}
	b.deps.Logger.Info("📥 Удалённое действие #%d: %s", action.ID, action.Action)
	return r, true
}

// setRunning статус пишется и после отмены ctx
func (b *Bot) setRunning(ctx context.Context, running bool) {
	ctx = context.WithoutCancel(ctx)
	if b.OnRunningChange != nil {
		b.OnRunningChange(running)
	}
	if running {
		b.updateStatus(ctx, "fishing")
	} else {
		b.updateStatus(ctx, "stopped")
	}
}

func (b *Bot) updateStatus(ctx context.Context, status string) {
	if b.deps.Remote == nil {
		return
	}
	if err := b.deps.Remote.UpdateStatus(ctx, status); err != nil {
		b.deps.Logger.LogError(err, "❌ Ошибка обновления статуса")
	}
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
