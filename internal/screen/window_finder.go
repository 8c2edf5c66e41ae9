package screen

import (
	"fmt"
	"image"
)

// порог яркости, ниже которого пиксель считается рамкой
const blackLevel = 10

// GameWindow представляет найденное окно игры
type GameWindow struct {
	X, Y, Width, Height int
}

// Rect прямоугольник окна
func (w GameWindow) Rect() image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)
}

func isBlack(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r>>8 < blackLevel && g>>8 < blackLevel && b>>8 < blackLevel
}

// FindGameWindow ищет первую нечерную точку, затем расширяет прямоугольник до границ окна (граница: черный цвет)
func FindGameWindow(img image.Image) (*GameWindow, error) {
	b := img.Bounds()

	// 1. Найти первую нечерную точку
	found := false
	var startX, startY int
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X && !found; x++ {
			if !isBlack(img, x, y) {
				startX, startY = x, y
				found = true
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("game window not found")
	}

	// 2. Расширяем прямоугольник до черной рамки по строке и столбцу стартовой точки
	left, right := startX, startX
	top, bottom := startY, startY
	for x := startX; x < b.Max.X && !isBlack(img, x, startY); x++ {
		right = x
	}
	for x := startX; x >= b.Min.X && !isBlack(img, x, startY); x-- {
		left = x
	}
	for y := startY; y < b.Max.Y && !isBlack(img, startX, y); y++ {
		bottom = y
	}
	for y := startY; y >= b.Min.Y && !isBlack(img, startX, y); y-- {
		top = y
	}

	return &GameWindow{
		X:      left,
		Y:      top,
		Width:  right - left + 1,
		Height: bottom - top + 1,
	}, nil
}

// LocateGameWindow ищет окно на снимке экрана, пропуская topOffset пикселей сверху (панель заголовка)
func LocateGameWindow(full image.Image, topOffset int) (*GameWindow, error) {
	b := full.Bounds()
	if topOffset < 0 || topOffset >= b.Dy() {
		topOffset = 0
	}
	sub := image.Rect(b.Min.X, b.Min.Y+topOffset, b.Max.X, b.Max.Y)

	var area image.Image = full
	if si, ok := full.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		area = si.SubImage(sub)
	}

	w, err := FindGameWindow(area)
	if err != nil {
		return nil, fmt.Errorf("окно не найдено: %w", err)
	}
	return w, nil
}

// ResolveRegion переводит область относительно окна в абсолютные координаты; без окна возвращает область как есть
func ResolveRegion(window *GameWindow, rel image.Rectangle) image.Rectangle {
	if window == nil {
		return rel
	}
	if rel.Empty() {
		return window.Rect()
	}
	return rel.Add(image.Pt(window.X, window.Y)).Intersect(window.Rect())
}
