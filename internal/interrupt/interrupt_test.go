package interrupt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(im *InterruptManager) []Command {
	var out []Command
	for {
		select {
		case c := <-im.Commands():
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestHandleKey_ShiftEnter(t *testing.T) {
	im := NewInterruptManager(nil)

	im.HandleKey(KeyEnter, true)
	assert.Empty(t, drain(im), "enter without shift")

	im.HandleKey(KeyShift, true)
	im.HandleKey(KeyEnter, true)
	im.HandleKey(KeyEnter, false)
	im.HandleKey(KeyShift, false)
	im.HandleKey(KeyEnter, true)

	assert.Equal(t, []Command{CmdToggle}, drain(im))
}

func TestHandleKey_StopOnlyWhenRunning(t *testing.T) {
	im := NewInterruptManager(nil)

	im.HandleKey(KeyQ, true)
	assert.Empty(t, drain(im))

	im.SetScriptRunning(true)
	im.HandleKey(KeyQ, true)
	im.HandleKey(KeyCapsLock, true)
	assert.Equal(t, []Command{CmdStop, CmdStop}, drain(im))
}

func TestHandleKey_Settings(t *testing.T) {
	im := NewInterruptManager(nil)
	for _, k := range []Key{KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyOther} {
		im.HandleKey(k, true)
	}
	assert.Equal(t, []Command{CmdToleranceDown, CmdToleranceUp, CmdTogglePrediction, CmdSaveLog, CmdClear}, drain(im))
}

func TestSend_DropsWhenFull(t *testing.T) {
	im := NewInterruptManager(nil)
	for i := 0; i < cap(im.commands); i++ {
		assert.True(t, im.Send(CmdClear))
	}
	assert.False(t, im.Send(CmdStop))
	assert.Equal(t, "stop", CmdStop.String())
}
