// Package blackboard общие данные между циклом захвата и циклом управления.
//
// Каждое поле пишется атомарно и независимо от остальных. NaN означает, что
// объект не найден в последнем кадре.
package blackboard

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// Board пишет цикл захвата, читает цикл управления
type Board struct {
	rawTarget atomic.Float64
	target    atomic.Float64
	actuator  atomic.Float64
	velocity  atomic.Float64
	frame     atomic.Int64
	updatedAt atomic.Int64 // unix nano
	pressed   atomic.Bool
}

// New пустая доска
func New() *Board {
	b := &Board{}
	b.Clear()
	return b
}

// Snapshot значения полей на момент чтения; поля читаются по одному
type Snapshot struct {
	RawTarget float64
	Target    float64
	Actuator  float64
	Velocity  float64
	Frame     int64
	UpdatedAt time.Time
	Pressed   bool
}

func (b *Board) SetTarget(raw, predicted, velocity float64) {
	b.rawTarget.Store(raw)
	b.target.Store(predicted)
	b.velocity.Store(velocity)
}

// ClearTarget цель потеряна
func (b *Board) ClearTarget() {
	b.rawTarget.Store(math.NaN())
	b.target.Store(math.NaN())
}

func (b *Board) SetActuator(pos float64) { b.actuator.Store(pos) }

// ClearActuator поплавок потерян
func (b *Board) ClearActuator() { b.actuator.Store(math.NaN()) }

// MarkFrame отмечает обработанный кадр
func (b *Board) MarkFrame(at time.Time) {
	b.frame.Inc()
	b.updatedAt.Store(at.UnixNano())
}

// SetPressed зеркало состояния клавиши для отображения
func (b *Board) SetPressed(v bool) { b.pressed.Store(v) }

// Clear сбрасывает позиции
func (b *Board) Clear() {
	b.ClearTarget()
	b.ClearActuator()
	b.velocity.Store(0)
}

func (b *Board) Load() Snapshot {
	s := Snapshot{
		RawTarget: b.rawTarget.Load(),
		Target:    b.target.Load(),
		Actuator:  b.actuator.Load(),
		Velocity:  b.velocity.Load(),
		Frame:     b.frame.Load(),
		Pressed:   b.pressed.Load(),
	}
	if ns := b.updatedAt.Load(); ns != 0 {
		s.UpdatedAt = time.Unix(0, ns)
	}
	return s
}
