package detector

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func noiseFrame(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, src.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

func TestElevation(t *testing.T) {
	d := Detection{CenterY: 30}

	assert.Equal(t, 70.0, Elevation(d, 100, true))
	assert.Equal(t, 30.0, Elevation(d, 100, false))
	assert.Equal(t, 30, ScreenY(70, 100, true))
	assert.Equal(t, 70, ScreenY(70, 100, false))

	// выше на экране значит больше по оси подъёма
	above := Detection{CenterY: 10}
	assert.Greater(t, Elevation(above, 100, true), Elevation(d, 100, true))
}

func TestTemplateMatcher_FindsCrop(t *testing.T) {
	frame := noiseFrame(200, 100, 1)
	tmpl := crop(frame, image.Rect(120, 40, 140, 56))

	m, err := NewTemplateMatcherFromImage("fish", tmpl, 0.6)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, image.Pt(20, 16), m.Size())

	d, err := m.Detect(frame)
	require.NoError(t, err)
	assert.True(t, d.Found)
	assert.Equal(t, 120, d.X)
	assert.Equal(t, 40, d.Y)
	assert.Equal(t, 130, d.CenterX)
	assert.Equal(t, 48, d.CenterY)
	assert.InDelta(t, 1.0, d.Confidence, 0.01)

	m.SetThreshold(1.01)
	d, err = m.Detect(frame)
	require.NoError(t, err)
	assert.False(t, d.Found)
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmpl.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestToGray_BGRWeights(t *testing.T) {
	cases := []struct {
		c    color.RGBA
		gray float64
	}{
		{color.RGBA{R: 255, A: 255}, 76},
		{color.RGBA{B: 255, A: 255}, 29},
		{color.RGBA{G: 128, B: 255, A: 255}, 104},
	}
	for _, tc := range cases {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		fill(img, img.Bounds(), tc.c)

		gray, err := toGray(img)
		require.NoError(t, err)
		assert.InDelta(t, tc.gray, float64(gray.GetUCharAt(0, 0)), 1.5, "%v", tc.c)
		gray.Close()
	}
}

func TestTemplateMatcher_ColorTemplateFromFile(t *testing.T) {
	// бирюзовая рыба на сером фоне с шумом
	frame := noiseFrame(200, 120, 7)
	fill(frame, image.Rect(60, 30, 180, 110), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	fill(frame, image.Rect(100, 60, 116, 72), color.RGBA{G: 128, B: 255, A: 255})

	tmpl := crop(frame, image.Rect(92, 52, 124, 80))
	m, err := NewTemplateMatcher("fish", writePNG(t, tmpl), 0.9)
	require.NoError(t, err)
	defer m.Close()

	d, err := m.Detect(frame)
	require.NoError(t, err)
	assert.True(t, d.Found, "confidence %.3f", d.Confidence)
	assert.Equal(t, 92, d.X)
	assert.Equal(t, 52, d.Y)
	assert.Greater(t, d.Confidence, 0.95)
}

func TestTemplateMatcher_FrameTooSmall(t *testing.T) {
	m, err := NewTemplateMatcherFromImage("box", noiseFrame(40, 40, 2), 0.6)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Detect(noiseFrame(20, 20, 3))
	assert.Error(t, err)
}

func TestNewTemplateMatcher_MissingFile(t *testing.T) {
	_, err := NewTemplateMatcher("fish", filepath.Join(t.TempDir(), "nope.png"), 0.6)
	assert.Error(t, err)
}

func TestFrameDumper_SkipsSimilarFrames(t *testing.T) {
	dir := t.TempDir()
	fd, err := NewFrameDumper(dir, 6)
	require.NoError(t, err)

	frame := noiseFrame(64, 64, 4)
	fish := Detection{Found: true, X: 10, Y: 10, Width: 8, Height: 8, CenterX: 14, CenterY: 14, Confidence: 0.9}
	at := time.Unix(1700000000, 0)

	path, err := fd.Dump(frame, fish, Detection{}, 20, at)
	require.NoError(t, err)
	assert.FileExists(t, path)

	path, err = fd.Dump(frame, fish, Detection{}, 20, at.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, path, "identical frame is skipped")

	changed, _, err := fd.Changed(noiseFrame(64, 64, 5))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestFrameDumper_KeepsColors(t *testing.T) {
	fd, err := NewFrameDumper(t.TempDir(), 0)
	require.NoError(t, err)

	frame := image.NewRGBA(image.Rect(0, 0, 32, 32))
	fill(frame, frame.Bounds(), color.RGBA{R: 255, A: 255})

	path, err := fd.Dump(frame, Detection{}, Detection{}, 0, time.Unix(1700000000, 0))
	require.NoError(t, err)
	require.NotEmpty(t, path)

	saved := gocv.IMRead(path, gocv.IMReadColor)
	require.False(t, saved.Empty())
	defer saved.Close()

	// IMRead отдаёт BGR
	px := saved.GetVecbAt(16, 16)
	assert.Equal(t, []uint8{0, 0, 255}, []uint8{px[0], px[1], px[2]})
}
