package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Capturer источник кадров
type Capturer interface {
	Capture() (image.Image, error)
	Bounds() image.Rectangle
}

// RegionCapturer захватывает фиксированную область экрана
type RegionCapturer struct {
	rect image.Rectangle
}

// NewRegionCapturer область в абсолютных координатах экрана
func NewRegionCapturer(rect image.Rectangle) (*RegionCapturer, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("пустая область захвата: %v", rect)
	}
	return &RegionCapturer{rect: rect}, nil
}

func (c *RegionCapturer) Bounds() image.Rectangle { return c.rect }

// Capture захватывает область в память
func (c *RegionCapturer) Capture() (image.Image, error) {
	img, err := screenshot.CaptureRect(c.rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return img, nil
}

// DisplayBounds границы основного монитора
func DisplayBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() < 1 {
		return image.Rectangle{}, fmt.Errorf("нет активных мониторов")
	}
	return screenshot.GetDisplayBounds(0), nil
}

// CaptureFullScreen захватывает скриншот всего основного монитора
func CaptureFullScreen() (image.Image, error) {
	bounds, err := DisplayBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture full screen: %w", err)
	}
	return img, nil
}
