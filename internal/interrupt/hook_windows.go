//go:build windows

package interrupt

import (
	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// StartMonitoring запускает мониторинг горячих клавиш
func (im *InterruptManager) StartMonitoring() error {
	go im.monitorHotkeys()
	return nil
}

// monitorHotkeys мониторит горячие клавиши
func (im *InterruptManager) monitorHotkeys() {
	eventChan := make(chan types.KeyboardEvent, 100)
	go keyboard.Install(nil, eventChan)
	defer keyboard.Uninstall()

	for event := range eventChan {
		switch event.Message {
		case types.WM_KEYDOWN:
			im.HandleKey(mapKey(event.VKCode), true)
		case types.WM_KEYUP:
			im.HandleKey(mapKey(event.VKCode), false)
		}
	}
}

func mapKey(vk types.VKCode) Key {
	switch vk {
	case types.VK_LSHIFT, types.VK_RSHIFT:
		return KeyShift
	case types.VK_RETURN:
		return KeyEnter
	case types.VK_Q:
		return KeyQ
	case types.VK_CAPITAL:
		return KeyCapsLock
	case types.VK_F7:
		return KeyF7
	case types.VK_F8:
		return KeyF8
	case types.VK_F9:
		return KeyF9
	case types.VK_F10:
		return KeyF10
	case types.VK_F11:
		return KeyF11
	}
	return KeyOther
}
