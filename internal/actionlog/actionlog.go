// Package actionlog журнал нажатий и отпусканий клавиши.
//
// Каждый переход контроллера даёт ровно одну запись. Записи раздаются
// подписчикам (консоль, файл логов, база) в том же порядке, в котором
// были сделаны.
package actionlog

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rybak/internal/controller"
)

const KindNote = "note"

// Entry запись журнала
type Entry struct {
	Seq       int64
	Session   string
	At        time.Time
	Kind      string
	Target    float64
	RawTarget float64
	Actuator  float64
	Diff      float64
	Hold      time.Duration
	Caught    bool
	CatchNo   int
	Message   string
}

// Lines текст записи с меткой времени; пойманная рыба даёт вторую строку
func (e Entry) Lines() []string {
	ts := e.At.Format("15:04:05.000")
	lines := []string{fmt.Sprintf("[%s] %s", ts, e.Message)}
	if e.Caught {
		lines = append(lines, fmt.Sprintf("[%s] [AUTO] FISH CAUGHT! #%d", ts, e.CatchNo))
	}
	return lines
}

// Sink получатель записей. Write вызывается под блокировкой журнала
type Sink interface {
	Write(Entry) error
}

// SinkFunc функция как Sink
type SinkFunc func(Entry) error

func (f SinkFunc) Write(e Entry) error { return f(e) }

// Log журнал в памяти
type Log struct {
	mu          sync.Mutex
	session     string
	entries     []Entry
	seq         int64
	catches     int
	sinks       []Sink
	OnSinkError func(error)
}

// New создает журнал для сессии
func New(session string, sinks ...Sink) *Log {
	return &Log{session: session, sinks: sinks}
}

// AddSink подключает получателя
func (l *Log) AddSink(s Sink) {
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Session идентификатор сессии
func (l *Log) Session() string { return l.session }

// Record добавляет запись для перехода; Hold игнорируется
func (l *Log) Record(d controller.Decision) (Entry, bool) {
	if !d.Kind.IsTransition() {
		return Entry{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		At:        d.At,
		Kind:      d.Kind.String(),
		Target:    d.Target,
		RawTarget: d.RawTarget,
		Actuator:  d.Actuator,
		Diff:      d.Diff,
		Hold:      d.Hold,
		Caught:    d.Caught,
		Message:   formatDecision(d),
	}
	if d.Caught {
		l.catches++
		e.CatchNo = l.catches
	}
	l.appendLocked(e)
	return l.entries[len(l.entries)-1], true
}

// Note служебная запись (старт, стоп, смена настроек)
func (l *Log) Note(at time.Time, format string, args ...interface{}) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.appendLocked(Entry{
		At:        at,
		Kind:      KindNote,
		Target:    math.NaN(),
		RawTarget: math.NaN(),
		Actuator:  math.NaN(),
		Diff:      math.NaN(),
		Message:   fmt.Sprintf(format, args...),
	})
	return l.entries[len(l.entries)-1]
}

func (l *Log) appendLocked(e Entry) {
	l.seq++
	e.Seq = l.seq
	e.Session = l.session
	l.entries = append(l.entries, e)

	for _, s := range l.sinks {
		if err := s.Write(e); err != nil && l.OnSinkError != nil {
			l.OnSinkError(err)
		}
	}
}

// Entries копия записей
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Catches число пойманных рыб
func (l *Log) Catches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catches
}

// Clear очищает записи и счётчик улова; нумерация продолжается
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.catches = 0
}

// SaveText пишет журнал в dir/fishing_log_<unix>.txt и возвращает путь
func (l *Log) SaveText(dir string, now time.Time) (string, error) {
	entries := l.Entries()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории журнала: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("fishing_log_%d.txt", now.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла журнала: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		for _, line := range e.Lines() {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return "", fmt.Errorf("ошибка записи журнала: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("ошибка записи журнала: %w", err)
	}
	return path, nil
}

func formatDecision(d controller.Decision) string {
	holdMs := d.Hold.Milliseconds()
	switch d.Kind {
	case controller.Press:
		return fmt.Sprintf("[AUTO] PRESS | Fish:%s | Box:%s | Tgt:%s | Diff:%s",
			num(d.RawTarget), num(d.Actuator), num(d.Target), num(d.Diff))
	case controller.Release:
		return fmt.Sprintf("[AUTO] RELEASE | Fish:%s | Box:%s | Tgt:%s | Diff:%s | Hold:%dms",
			num(d.RawTarget), num(d.Actuator), num(d.Target), num(d.Diff), holdMs)
	case controller.ReleaseAligned:
		return fmt.Sprintf("[AUTO] ALIGNED! | Fish:%s | Box:%s | Pred:%s | Hold:%dms",
			num(d.RawTarget), num(d.Actuator), num(d.Target), holdMs)
	}
	return "[AUTO] " + d.Kind.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%d", int(v))
}
