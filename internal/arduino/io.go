package arduino

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ответ скетча на каждую команду
const ackResponse = "received"

// DefaultAckTimeout сколько ждать подтверждения, если в конфиге не задано
const DefaultAckTimeout = 500 * time.Millisecond

// после readTimeout без данных Read порта возвращает 0 байт
const readTimeout = 50 * time.Millisecond

// ErrAckTimeout скетч не ответил за отведённое время
var ErrAckTimeout = errors.New("arduino did not acknowledge in time")

func InitializePort(name string, baud int) (*serial.Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: readTimeout,
	})
	return port, err
}

func SendKeyDownToArduino(port io.Writer, key string) error {
	message := fmt.Sprintf("key_down:%s\n", key)
	if _, err := port.Write([]byte(message)); err != nil {
		return fmt.Errorf("error writing to Arduino: %w", err)
	}
	return nil
}

func SendKeyUpToArduino(port io.Writer, key string) error {
	message := fmt.Sprintf("key_up:%s\n", key)
	if _, err := port.Write([]byte(message)); err != nil {
		return fmt.Errorf("error writing to Arduino: %w", err)
	}
	return nil
}

// WaitForArduinoResponse читает до перевода строки, но не дольше timeout
func WaitForArduinoResponse(port io.Reader, expectedResponse string, timeout time.Duration) (string, error) {
	var response []byte
	buf := make([]byte, 128)
	deadline := time.Now().Add(timeout)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("error reading from Arduino: %w", err)
		}

		response = append(response, buf[:n]...)

		if len(response) > 0 && response[len(response)-1] == '\n' {
			got := string(bytes.TrimSpace(response))
			if got == expectedResponse {
				return got, nil
			}
			return "", fmt.Errorf("unexpected response: '%s'", got)
		}
		if !time.Now().Before(deadline) {
			return "", fmt.Errorf("%w (%s, got '%s')", ErrAckTimeout, timeout, bytes.TrimSpace(response))
		}
	}
}
