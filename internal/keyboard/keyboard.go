// Package keyboard нажатие клавиши эмуляцией ввода ОС, без Arduino.
package keyboard

import (
	"sync"

	"github.com/go-vgo/robotgo"
)

var keyToggle = func(key, direction string) error {
	return robotgo.KeyToggle(key, direction)
}

// Actuator зажимает и отпускает одну клавишу через robotgo
type Actuator struct {
	mu      sync.Mutex
	key     string
	pressed bool
}

func NewActuator(key string) *Actuator {
	return &Actuator{key: key}
}

func (a *Actuator) Press() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pressed {
		return nil
	}
	if err := keyToggle(a.key, "down"); err != nil {
		return err
	}
	a.pressed = true
	return nil
}

func (a *Actuator) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pressed {
		return nil
	}
	if err := keyToggle(a.key, "up"); err != nil {
		return err
	}
	a.pressed = false
	return nil
}
