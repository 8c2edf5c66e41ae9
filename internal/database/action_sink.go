package database

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"rybak/internal/actionlog"
)

// ActionSink пишет записи журнала в БД в отдельной горутине, сохраняя порядок
type ActionSink struct {
	manager *DatabaseManager
	queue   chan actionlog.Entry
	dropped atomic.Int64
	timeout time.Duration
}

// NewActionSink buffer записей ждут записи; при переполнении новые записи отбрасываются
func (h *DatabaseManager) NewActionSink(buffer int) *ActionSink {
	s := &ActionSink{
		manager: h,
		queue:   make(chan actionlog.Entry, buffer),
		timeout: 5 * time.Second,
	}
	h.wg.Add(1)
	go s.run()
	return s
}

func (s *ActionSink) run() {
	defer s.manager.wg.Done()
	for e := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.manager.SaveActionEntry(ctx, e)
		cancel()
		if err != nil {
			s.manager.logger.LogError(err, "Ошибка асинхронного сохранения журнала")
		}
	}
}

// Write ставит запись в очередь, не блокируя цикл управления
func (s *ActionSink) Write(e actionlog.Entry) error {
	select {
	case s.queue <- e:
		return nil
	default:
		s.dropped.Inc()
		return errQueueFull
	}
}

// Dropped сколько записей потеряно из-за переполнения
func (s *ActionSink) Dropped() int64 { return s.dropped.Load() }

// Close закрывает очередь и сообщает о потерянных записях; дождаться записи можно через WaitForAsyncOperations
func (s *ActionSink) Close() {
	close(s.queue)
	if n := s.dropped.Load(); n > 0 {
		s.manager.logger.Warn("⚠️ Очередь записи в БД переполнялась, потеряно записей журнала: %d", n)
	}
}
