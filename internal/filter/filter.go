// Package filter сглаживает позицию цели и предсказывает её на несколько кадров вперёд.
//
// История хранит последние N позиций. Сглаженное значение это медиана последних
// трёх, скорость это разница двух последних кадров с ограничением по модулю,
// предсказание это сглаженное значение плюс скорость, умноженная на упреждение.
package filter

import (
	"math"
	"time"
)

const (
	DefaultHistorySize = 10
	DefaultMaxVelocity = 50.0
	DefaultLookAhead   = 2.0
)

// Config параметры фильтра
type Config struct {
	HistorySize int
	MaxVelocity float64
	LookAhead   float64
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		HistorySize: DefaultHistorySize,
		MaxVelocity: DefaultMaxVelocity,
		LookAhead:   DefaultLookAhead,
	}
}

// Sample одно наблюдение цели за кадр; не меняется после создания
type Sample struct {
	Value      float64
	Confidence float64
	At         time.Time
}

// State результат последнего обновления; At время принятого наблюдения, если оно было
type State struct {
	Smoothed  float64
	Velocity  float64
	Predicted float64
	Samples   int
	At        time.Time
}

// Filter не потокобезопасен, им владеет цикл захвата
type Filter struct {
	cfg      Config
	history  *Ring[float64]
	velocity float64
	last     State
}

// New создает фильтр; некорректные поля заменяются значениями по умолчанию
func New(cfg Config) *Filter {
	def := DefaultConfig()
	if cfg.HistorySize < 3 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.MaxVelocity <= 0 {
		cfg.MaxVelocity = def.MaxVelocity
	}
	if cfg.LookAhead < 0 {
		cfg.LookAhead = def.LookAhead
	}
	return &Filter{cfg: cfg, history: NewRing[float64](cfg.HistorySize)}
}

// Update добавляет позицию и пересчитывает состояние
func (f *Filter) Update(position float64, predict bool) State {
	f.history.Push(position)
	n := f.history.Len()

	smoothed := position
	if n >= 3 {
		last := f.history.Last(3)
		smoothed = median3(last[0], last[1], last[2])
	}

	// при одном отсчёте скорость остаётся прежней
	if n >= 2 {
		v := f.history.At(-1) - f.history.At(-2)
		f.velocity = math.Max(-f.cfg.MaxVelocity, math.Min(f.cfg.MaxVelocity, v))
	}

	predicted := smoothed
	if predict && n >= 2 {
		predicted = smoothed + f.velocity*f.cfg.LookAhead
	}

	f.last = State{
		Smoothed:  smoothed,
		Velocity:  f.velocity,
		Predicted: predicted,
		Samples:   n,
	}
	return f.last
}

// Observe обновляет фильтр наблюдением. Наблюдение с уверенностью <= 0 или
// старше последнего принятого не меняет историю, возвращается прежнее состояние.
func (f *Filter) Observe(s Sample, predict bool) State {
	if s.Confidence <= 0 || s.At.Before(f.last.At) {
		return f.last
	}
	st := f.Update(s.Value, predict)
	st.At = s.At
	f.last = st
	return st
}

// Velocity текущая оценка скорости
func (f *Filter) Velocity() float64 { return f.velocity }

// Len размер истории
func (f *Filter) Len() int { return f.history.Len() }

// Reset сбрасывает историю и скорость
func (f *Filter) Reset() {
	f.history.Reset()
	f.velocity = 0
	f.last = State{}
}

func median3(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	return math.Max(a, b)
}
