//go:build !windows

package interrupt

import "errors"

// StartMonitoring глобальный хук клавиатуры есть только под Windows
func (im *InterruptManager) StartMonitoring() error {
	return errors.New("горячие клавиши поддерживаются только в Windows")
}
