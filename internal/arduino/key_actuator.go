package arduino

import (
	"fmt"
	"io"
	"sync"
	"time"

	"rybak/internal/logger"
)

// KeyActuator зажимает и отпускает клавишу через HID-мост на Arduino
type KeyActuator struct {
	mu            sync.Mutex
	port          io.ReadWriter
	key           string
	ackTimeout    time.Duration
	pressed       bool
	loggerManager *logger.LoggerManager
}

// NewKeyActuator port обычно *serial.Port; ackTimeout <= 0 значит DefaultAckTimeout
func NewKeyActuator(port io.ReadWriter, key string, ackTimeout time.Duration, loggerManager *logger.LoggerManager) *KeyActuator {
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	return &KeyActuator{port: port, key: key, ackTimeout: ackTimeout, loggerManager: loggerManager}
}

// ProcessAndWait отправляет команду и ждёт подтверждения от Arduino
func ProcessAndWait(port io.ReadWriter, send func(io.Writer, string) error, key string, timeout time.Duration) error {
	if err := send(port, key); err != nil {
		return err
	}
	if _, err := WaitForArduinoResponse(port, ackResponse, timeout); err != nil {
		return fmt.Errorf("error waiting for Arduino response: %w", err)
	}
	return nil
}

// Press повторное нажатие при зажатой клавише ничего не отправляет
func (a *KeyActuator) Press() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pressed {
		return nil
	}
	// считаем клавишу зажатой даже без подтверждения, чтобы Release её точно отпустил
	a.pressed = true
	if err := ProcessAndWait(a.port, SendKeyDownToArduino, a.key, a.ackTimeout); err != nil {
		return fmt.Errorf("key_down %s: %w", a.key, err)
	}
	if a.loggerManager != nil {
		a.loggerManager.Debug("⬇️ key_down:%s", a.key)
	}
	return nil
}

// Release повторное отпускание ничего не отправляет
func (a *KeyActuator) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pressed {
		return nil
	}
	if err := ProcessAndWait(a.port, SendKeyUpToArduino, a.key, a.ackTimeout); err != nil {
		return fmt.Errorf("key_up %s: %w", a.key, err)
	}
	a.pressed = false
	if a.loggerManager != nil {
		a.loggerManager.Debug("⬆️ key_up:%s", a.key)
	}
	return nil
}

func (a *KeyActuator) Pressed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pressed
}
