// Package timeutil даёт подменяемые часы для циклов бота и тестов.
package timeutil

import (
	"sync"
	"time"
)

// Clock абстракция над временем
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock использует пакет time
type RealClock struct{}

func (RealClock) Now() time.Time                  { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// MockClock часы, которые двигаются только вручную
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock создает часы, остановленные на t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now возвращает текущее замороженное время
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since считает разницу относительно замороженного времени
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set переставляет часы
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance сдвигает часы вперёд на d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
