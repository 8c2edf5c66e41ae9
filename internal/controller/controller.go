// Package controller решает, держать ли клавишу, по положению цели и поплавка.
//
// Позиции задаются по оси подъёма: положительное направление совпадает с
// направлением, в котором движется поплавок, пока клавиша зажата. Экранные
// координаты переводятся в эту ось до вызова Step.
//
// Step чистая функция: состояние клавиши передаётся в неё и возвращается
// обратно, поэтому переход из одного состояния в то же самое невозможен.
package controller

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMissingInput позиции цели или поплавка нет в этом кадре
	ErrMissingInput = errors.New("нет позиции цели или поплавка")
	// ErrInvalidConfiguration параметры, с которыми управлять нельзя
	ErrInvalidConfiguration = errors.New("некорректные параметры контроллера")
)

const (
	DefaultTolerance     = 10.0
	DefaultReleaseFactor = 2.5
	DefaultMinHold       = 300 * time.Millisecond
	DefaultDebounce      = 100 * time.Millisecond
)

// Kind тип решения
type Kind int

const (
	Hold Kind = iota
	Press
	Release
	ReleaseAligned
)

func (k Kind) String() string {
	switch k {
	case Hold:
		return "hold"
	case Press:
		return "press"
	case Release:
		return "release"
	case ReleaseAligned:
		return "release_aligned"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsTransition true для решений, меняющих состояние клавиши
func (k Kind) IsTransition() bool { return k != Hold }

// Params настраиваемая политика
type Params struct {
	Tolerance     float64
	ReleaseFactor float64
	MinHold       time.Duration
	Debounce      time.Duration
}

// DefaultParams значения по умолчанию
func DefaultParams() Params {
	return Params{
		Tolerance:     DefaultTolerance,
		ReleaseFactor: DefaultReleaseFactor,
		MinHold:       DefaultMinHold,
		Debounce:      DefaultDebounce,
	}
}

// ReleaseTolerance широкий порог для досрочного отпускания
func (p Params) ReleaseTolerance() float64 { return p.Tolerance * p.ReleaseFactor }

// Validate проверяет параметры
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.Tolerance) || math.IsInf(p.Tolerance, 0) || p.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance=%v", ErrInvalidConfiguration, p.Tolerance)
	case math.IsNaN(p.ReleaseFactor) || math.IsInf(p.ReleaseFactor, 0) || p.ReleaseFactor < 1:
		return fmt.Errorf("%w: release_factor=%v", ErrInvalidConfiguration, p.ReleaseFactor)
	case p.MinHold < 0:
		return fmt.Errorf("%w: min_hold=%v", ErrInvalidConfiguration, p.MinHold)
	case p.Debounce < 0:
		return fmt.Errorf("%w: debounce=%v", ErrInvalidConfiguration, p.Debounce)
	}
	return nil
}

// ActuatorState состояние клавиши между тиками
type ActuatorState struct {
	Pressed          bool
	PressStartedAt   time.Time
	LastTransitionAt time.Time // момент последнего отпускания, нулевой если его не было
}

// Input входные данные тика. NaN означает, что позиции нет
type Input struct {
	Target    float64 // предсказанная или сглаженная позиция цели
	RawTarget float64 // позиция цели без предсказания
	Actuator  float64
	Now       time.Time
}

// Decision решение тика и данные для журнала
type Decision struct {
	Kind      Kind
	At        time.Time
	Target    float64
	RawTarget float64
	Actuator  float64
	Diff      float64
	Hold      time.Duration // длительность нажатия на момент отпускания
	Caught    bool
}

// Step один тик автомата
func Step(p Params, st ActuatorState, in Input) (ActuatorState, Decision, error) {
	d := Decision{Kind: Hold, At: in.Now, Target: in.Target, RawTarget: in.RawTarget, Actuator: in.Actuator}

	if err := p.Validate(); err != nil {
		return st, d, err
	}
	if math.IsNaN(in.Target) || math.IsNaN(in.Actuator) {
		return st, d, ErrMissingInput
	}

	diff := in.Target - in.Actuator
	d.Diff = diff
	if st.Pressed {
		d.Hold = in.Now.Sub(st.PressStartedAt)
	}

	switch {
	case diff > p.Tolerance:
		// цель выше поплавка
		if !st.Pressed && debounced(p, st, in.Now) {
			st.Pressed = true
			st.PressStartedAt = in.Now
			d.Kind = Press
			d.Hold = 0
		}

	case diff < -p.Tolerance:
		// цель ниже, поплавок возможно проскочил
		if st.Pressed && (d.Hold >= p.MinHold || in.Actuator > in.Target+p.ReleaseTolerance()) {
			st = released(st, in.Now)
			d.Kind = Release
		}

	default:
		if st.Pressed && d.Hold >= p.MinHold {
			st = released(st, in.Now)
			d.Kind = ReleaseAligned
			// поймана, если и без предсказания цель в пределах допуска
			d.Caught = !math.IsNaN(in.RawTarget) && math.Abs(in.RawTarget-in.Actuator) < p.Tolerance
		}
	}

	return st, d, nil
}

func debounced(p Params, st ActuatorState, now time.Time) bool {
	if st.LastTransitionAt.IsZero() {
		return true
	}
	return now.Sub(st.LastTransitionAt) >= p.Debounce
}

func released(st ActuatorState, now time.Time) ActuatorState {
	st.Pressed = false
	st.LastTransitionAt = now
	return st
}

// ForceRelease отпускание при остановке бота; возвращает false, если клавиша не была нажата
func ForceRelease(st ActuatorState, now time.Time) (ActuatorState, Decision, bool) {
	if !st.Pressed {
		return st, Decision{Kind: Hold, At: now}, false
	}
	d := Decision{
		Kind:      Release,
		At:        now,
		Target:    math.NaN(),
		RawTarget: math.NaN(),
		Actuator:  math.NaN(),
		Diff:      math.NaN(),
		Hold:      now.Sub(st.PressStartedAt),
	}
	return released(st, now), d, true
}
