package interrupt

import (
	"go.uber.org/atomic"

	"rybak/internal/logger"
)

// Command действие, запрошенное с клавиатуры или удалённо
type Command int

const (
	CmdToggle Command = iota
	CmdStart
	CmdStop
	CmdToleranceDown
	CmdToleranceUp
	CmdTogglePrediction
	CmdSaveLog
	CmdClear
	CmdSetTolerance  // только удалённо, со значением
	CmdSetPrediction // только удалённо, со значением
)

func (c Command) String() string {
	switch c {
	case CmdToggle:
		return "toggle"
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdToleranceDown:
		return "tolerance-"
	case CmdToleranceUp:
		return "tolerance+"
	case CmdTogglePrediction:
		return "prediction"
	case CmdSaveLog:
		return "save_log"
	case CmdClear:
		return "clear"
	case CmdSetTolerance:
		return "set_tolerance"
	case CmdSetPrediction:
		return "set_prediction"
	}
	return "unknown"
}

// Key клавиша, не зависящая от платформенного хука
type Key int

const (
	KeyOther Key = iota
	KeyShift
	KeyEnter
	KeyQ
	KeyCapsLock
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
)

// InterruptManager управляет прерываниями и горячими клавишами
type InterruptManager struct {
	commands      chan Command
	running       atomic.Bool
	shiftPressed  bool
	loggerManager *logger.LoggerManager
}

// NewInterruptManager создает новый менеджер прерываний
func NewInterruptManager(loggerManager *logger.LoggerManager) *InterruptManager {
	return &InterruptManager{
		commands:      make(chan Command, 16),
		loggerManager: loggerManager,
	}
}

// Commands канал команд для главного цикла
func (im *InterruptManager) Commands() <-chan Command {
	return im.commands
}

// Send ставит команду в очередь; при переполнении команда теряется
func (im *InterruptManager) Send(cmd Command) bool {
	select {
	case im.commands <- cmd:
		return true
	default:
		if im.loggerManager != nil {
			im.loggerManager.Warn("⚠️ Очередь команд переполнена, %s пропущена", cmd)
		}
		return false
	}
}

// SetScriptRunning устанавливает состояние выполнения скрипта
func (im *InterruptManager) SetScriptRunning(running bool) {
	im.running.Store(running)
}

// IsScriptRunning возвращает состояние выполнения скрипта
func (im *InterruptManager) IsScriptRunning() bool {
	return im.running.Load()
}

// HandleKey переводит нажатия в команды. Shift+Enter запуск/остановка, Q и CapsLock остановка,
// F7/F8 допуск, F9 предсказание, F10 сохранить журнал, F11 очистить
func (im *InterruptManager) HandleKey(key Key, down bool) {
	if key == KeyShift {
		im.shiftPressed = down
		return
	}
	if !down {
		return
	}
	switch key {
	case KeyEnter:
		if im.shiftPressed {
			im.Send(CmdToggle)
		}
	case KeyQ, KeyCapsLock:
		// Q только прерывает, если бот запущен
		if im.IsScriptRunning() {
			im.Send(CmdStop)
		}
	case KeyF7:
		im.Send(CmdToleranceDown)
	case KeyF8:
		im.Send(CmdToleranceUp)
	case KeyF9:
		im.Send(CmdTogglePrediction)
	case KeyF10:
		im.Send(CmdSaveLog)
	case KeyF11:
		im.Send(CmdClear)
	}
}
