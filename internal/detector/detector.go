// Package detector ищет рыбу и поплавок на кадре по шаблонам.
package detector

import "image"

// Detection результат поиска одного шаблона на кадре
type Detection struct {
	Found      bool
	X, Y       int // левый верхний угол совпадения
	Width      int
	Height     int
	CenterX    int
	CenterY    int
	Confidence float64
}

// Detector ищет один объект на кадре
type Detector interface {
	Detect(frame image.Image) (Detection, error)
	Close() error
}

// Elevation переводит экранную Y в ось подъёма; при invert ось смотрит вверх от низа кадра
func Elevation(d Detection, frameHeight int, invert bool) float64 {
	if invert {
		return float64(frameHeight - d.CenterY)
	}
	return float64(d.CenterY)
}

// ScreenY обратное преобразование для отрисовки
func ScreenY(elevation float64, frameHeight int, invert bool) int {
	if invert {
		return frameHeight - int(elevation)
	}
	return int(elevation)
}
