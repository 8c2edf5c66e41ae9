package actionlog

import (
	"io"
	"strings"

	"github.com/fatih/color"

	"rybak/internal/logger"
)

// ConsoleSink цветной вывод как в окне журнала: нажатие оранжевое, отпускание голубое, улов зелёный
type ConsoleSink struct {
	out     io.Writer
	press   *color.Color
	release *color.Color
	aligned *color.Color
	note    *color.Color
}

// NewConsoleSink out по умолчанию color.Output
func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = color.Output
	}
	return &ConsoleSink{
		out:     out,
		press:   color.New(color.FgHiYellow),
		release: color.New(color.FgCyan),
		aligned: color.New(color.FgHiGreen, color.Bold),
		note:    color.New(color.FgWhite),
	}
}

func (s *ConsoleSink) Write(e Entry) error {
	c := s.note
	switch e.Kind {
	case "press":
		c = s.press
	case "release":
		c = s.release
	case "release_aligned":
		c = s.aligned
	}
	lines := e.Lines()
	if _, err := c.Fprintln(s.out, lines[0]); err != nil {
		return err
	}
	if len(lines) > 1 {
		_, err := s.aligned.Fprintln(s.out, strings.Join(lines[1:], "\n"))
		return err
	}
	return nil
}

// LoggerSink дублирует записи в файл логов
type LoggerSink struct {
	Logger *logger.LoggerManager
}

func (s LoggerSink) Write(e Entry) error {
	s.Logger.Info("#%d %s", e.Seq, e.Message)
	if e.Caught {
		s.Logger.Info("🐟 Поймана рыба #%d", e.CatchNo)
	}
	return nil
}
