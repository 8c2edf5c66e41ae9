package detector

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/corona10/goimagehash"
	"gocv.io/x/gocv"
)

var (
	fishColor = color.RGBA{R: 255, G: 165, A: 255}
	boxColor  = color.RGBA{G: 255, B: 255, A: 255}
	predColor = color.RGBA{R: 50, G: 255, B: 50, A: 255}
)

// FrameDumper сохраняет кадры с разметкой, пропуская почти одинаковые
type FrameDumper struct {
	dir         string
	minDistance int
	lastHash    *goimagehash.ImageHash
}

// NewFrameDumper кадры, отличающиеся от предыдущего сохранённого меньше чем на minDistance бит перцептивного хеша, не пишутся
func NewFrameDumper(dir string, minDistance int) (*FrameDumper, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания папки кадров: %w", err)
	}
	return &FrameDumper{dir: dir, minDistance: minDistance}, nil
}

// Changed true, если кадр заметно отличается от последнего сохранённого
func (f *FrameDumper) Changed(frame image.Image) (bool, *goimagehash.ImageHash, error) {
	hash, err := goimagehash.PerceptionHash(frame)
	if err != nil {
		return false, nil, fmt.Errorf("ошибка хеширования кадра: %w", err)
	}
	if f.lastHash == nil {
		return true, hash, nil
	}
	dist, err := f.lastHash.Distance(hash)
	if err != nil {
		return false, nil, err
	}
	return dist >= f.minDistance, hash, nil
}

// Dump рисует рамки рыбы и поплавка и линию предсказания; возвращает путь или "" если кадр пропущен
func (f *FrameDumper) Dump(frame image.Image, fish, box Detection, predictedY int, at time.Time) (string, error) {
	changed, hash, err := f.Changed(frame)
	if err != nil || !changed {
		return "", err
	}

	bgr, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return "", fmt.Errorf("ошибка конвертации кадра: %w", err)
	}
	defer bgr.Close()

	drawDetection(&bgr, "fish", fish, fishColor)
	drawDetection(&bgr, "box", box, boxColor)
	if fish.Found {
		gocv.Line(&bgr, image.Pt(0, predictedY), image.Pt(bgr.Cols(), predictedY), predColor, 1)
	}

	path := filepath.Join(f.dir, fmt.Sprintf("frame_%d.png", at.UnixMilli()))
	if !gocv.IMWrite(path, bgr) {
		return "", fmt.Errorf("не удалось записать кадр %s", path)
	}
	f.lastHash = hash
	return path, nil
}

func drawDetection(m *gocv.Mat, label string, d Detection, c color.RGBA) {
	if !d.Found {
		return
	}
	rect := image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
	gocv.Rectangle(m, rect, c, 2)
	gocv.Circle(m, image.Pt(d.CenterX, d.CenterY), 3, c, -1)
	gocv.PutText(m, fmt.Sprintf("%s %.2f", label, d.Confidence), image.Pt(d.X, d.Y-4),
		gocv.FontHersheySimplex, 0.4, c, 1)
}
