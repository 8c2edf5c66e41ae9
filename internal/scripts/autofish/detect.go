package autofish

import (
	"image"

	"rybak/internal/detector"
	"rybak/internal/filter"
)

// DetectOnce один кадр: найти рыбу и поплавок, прогнать рыбу через фильтр, записать доску
func (b *Bot) DetectOnce() {
	if b.resetFilter.CAS(true, false) {
		b.filter.Reset()
	}

	frame, err := b.deps.Capturer.Capture()
	if err != nil {
		b.deps.Metrics.TickErrors.WithLabelValues("capture").Inc()
		if !b.captureFail {
			b.deps.Logger.Warn("⚠️ Не удалось захватить кадр: %v", err)
		}
		b.captureFail = true
		return
	}
	b.captureFail = false

	cfg := b.deps.Config
	height := frame.Bounds().Dy()
	now := b.deps.Clock.Now()

	fish := b.detect(b.deps.Fish, "fish", frame)
	box := b.detect(b.deps.Box, "box", frame)

	predicted := 0.0
	if fish.Found {
		b.fishFound.Inc()
		raw := detector.Elevation(fish, height, cfg.InvertAxis)
		st := b.filter.Observe(filter.Sample{Value: raw, Confidence: fish.Confidence, At: now}, b.deps.Runtime.PredictionEnabled())
		b.board.SetTarget(raw, st.Predicted, st.Velocity)
		predicted = st.Predicted
	} else {
		b.board.ClearTarget()
	}

	if box.Found {
		b.boxFound.Inc()
		b.board.SetActuator(detector.Elevation(box, height, cfg.InvertAxis))
	} else {
		b.board.ClearActuator()
	}
	b.board.MarkFrame(now)

	if b.deps.Dumper != nil && fish.Found {
		path, err := b.deps.Dumper.Dump(frame, fish, box, detector.ScreenY(predicted, height, cfg.InvertAxis), now)
		if err != nil {
			b.deps.Logger.LogError(err, "❌ Ошибка сохранения кадра")
		} else if path != "" {
			b.deps.Logger.Debug("🖼️ Кадр сохранён: %s", path)
		}
	}
}

// detect ошибку детектора считаем промахом
func (b *Bot) detect(d detector.Detector, entity string, frame image.Image) detector.Detection {
	det, err := d.Detect(frame)
	if err != nil {
		b.deps.Logger.Debug("🔍 Ошибка поиска %s: %v", entity, err)
		det = detector.Detection{}
	}
	b.deps.Metrics.ObserveDetection(entity, det.Found)
	return det
}
