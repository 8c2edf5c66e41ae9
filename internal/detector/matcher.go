package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"go.uber.org/atomic"
)

// TemplateMatcher поиск шаблона нормированной взаимной корреляцией (TM_CCOEFF_NORMED)
type TemplateMatcher struct {
	name      string
	template  gocv.Mat // в оттенках серого
	threshold atomic.Float64
	mu        sync.Mutex
}

// NewTemplateMatcher загружает шаблон из файла
func NewTemplateMatcher(name, path string, threshold float64) (*TemplateMatcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("шаблон %s не найден: %w", path, err)
	}
	tmpl := gocv.IMRead(path, gocv.IMReadGrayScale)
	if tmpl.Empty() {
		tmpl.Close()
		return nil, fmt.Errorf("не удалось прочитать шаблон %s", path)
	}
	return newMatcher(name, tmpl, threshold), nil
}

// NewTemplateMatcherFromImage шаблон из изображения в памяти
func NewTemplateMatcherFromImage(name string, img image.Image, threshold float64) (*TemplateMatcher, error) {
	gray, err := toGray(img)
	if err != nil {
		return nil, err
	}
	return newMatcher(name, gray, threshold), nil
}

func newMatcher(name string, tmpl gocv.Mat, threshold float64) *TemplateMatcher {
	m := &TemplateMatcher{name: name, template: tmpl}
	m.threshold.Store(threshold)
	return m
}

func (m *TemplateMatcher) Name() string { return m.name }

// SetThreshold порог уверенности в [0,1]
func (m *TemplateMatcher) SetThreshold(v float64) { m.threshold.Store(v) }

func (m *TemplateMatcher) Threshold() float64 { return m.threshold.Load() }

// Size размер шаблона
func (m *TemplateMatcher) Size() image.Point {
	return image.Pt(m.template.Cols(), m.template.Rows())
}

// Detect лучшее совпадение; Found только если уверенность не ниже порога
func (m *TemplateMatcher) Detect(frame image.Image) (Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gray, err := toGray(frame)
	if err != nil {
		return Detection{}, err
	}
	defer gray.Close()

	if gray.Cols() < m.template.Cols() || gray.Rows() < m.template.Rows() {
		return Detection{}, fmt.Errorf("%s: кадр %dx%d меньше шаблона %dx%d",
			m.name, gray.Cols(), gray.Rows(), m.template.Cols(), m.template.Rows())
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(gray, m.template, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	w, h := m.template.Cols(), m.template.Rows()
	d := Detection{
		X:          maxLoc.X,
		Y:          maxLoc.Y,
		Width:      w,
		Height:     h,
		CenterX:    maxLoc.X + w/2,
		CenterY:    maxLoc.Y + h/2,
		Confidence: float64(maxVal),
	}
	d.Found = d.Confidence >= m.threshold.Load()
	return d, nil
}

// Close освобождает шаблон
func (m *TemplateMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.template.Close()
}

func toGray(img image.Image) (gocv.Mat, error) {
	// ImageToMatRGB отдаёт Mat в порядке BGR, как и IMRead
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("ошибка конвертации кадра: %w", err)
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}
