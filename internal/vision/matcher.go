package vision

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultThreshold is the minimum correlation score a match must reach
// before the matcher will click it.
const DefaultThreshold = 0.8

// DefaultTypingPace is the per-character delay used when typing into a
// matched control.
const DefaultTypingPace = 80 * time.Millisecond

// Template pairs a reference image with its acceptance threshold. The click
// target is the center of the matched region.
type Template struct {
	Path      string
	Threshold float64
}

func (t Template) threshold() float64 {
	if t.Threshold <= 0 {
		return DefaultThreshold
	}
	return t.Threshold
}

// Matcher locates controls by normalized cross-correlation of reference
// images against the live screen.
type Matcher struct {
	screen Screen
	pace   time.Duration
	logger *zap.Logger
}

// NewMatcher creates a matcher over the given screen.
func NewMatcher(screen Screen, logger *zap.Logger) *Matcher {
	return &Matcher{screen: screen, pace: DefaultTypingPace, logger: logger}
}

// MatchAndClick tries each template in order against a fresh screen capture.
// The first template whose best correlation score reaches its threshold is
// clicked at its center; textToType, if non-empty, is then typed with
// inter-character pacing. Returns false when no template reaches threshold.
// A sub-threshold best match never produces a click.
func (m *Matcher) MatchAndClick(templates []Template, textToType string) (bool, error) {
	for _, tpl := range templates {
		ref, err := loadGray(tpl.Path)
		if err != nil {
			m.logger.Warn("Failed to load template", zap.String("path", tpl.Path), zap.Error(err))
			continue
		}

		shot, err := m.screen.Capture()
		if err != nil {
			return false, fmt.Errorf("failed to capture screen: %w", err)
		}

		score, pt := matchTemplate(toGray(shot), ref)
		if score < tpl.threshold() {
			m.logger.Debug("Template below threshold",
				zap.String("path", tpl.Path),
				zap.Float64("score", score),
				zap.Float64("threshold", tpl.threshold()))
			continue
		}

		cx := pt.X + ref.Bounds().Dx()/2
		cy := pt.Y + ref.Bounds().Dy()/2
		m.logger.Debug("Template matched",
			zap.String("path", tpl.Path),
			zap.Float64("score", score),
			zap.Int("x", cx),
			zap.Int("y", cy))

		m.screen.Click(cx, cy)
		if textToType != "" {
			m.screen.Type(textToType, m.pace)
		}
		return true, nil
	}
	return false, nil
}

// matchTemplate slides tpl over img computing zero-mean normalized
// cross-correlation and returns the best score in [-1, 1] with the top-left
// position of the best window. Flat windows score zero.
func matchTemplate(img, tpl *image.Gray) (float64, image.Point) {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := tpl.Bounds().Dx(), tpl.Bounds().Dy()
	if tw == 0 || th == 0 || tw > iw || th > ih {
		return -1, image.Point{}
	}

	n := float64(tw * th)

	// Template statistics are offset-independent.
	var tSum float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tSum += float64(tpl.GrayAt(tpl.Bounds().Min.X+x, tpl.Bounds().Min.Y+y).Y)
		}
	}
	tMean := tSum / n

	tDev := make([]float64, tw*th)
	var tNorm float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			d := float64(tpl.GrayAt(tpl.Bounds().Min.X+x, tpl.Bounds().Min.Y+y).Y) - tMean
			tDev[y*tw+x] = d
			tNorm += d * d
		}
	}
	if tNorm == 0 {
		// A flat template matches everything and nothing.
		return 0, image.Point{}
	}

	best := math.Inf(-1)
	var bestPt image.Point
	for oy := 0; oy <= ih-th; oy++ {
		for ox := 0; ox <= iw-tw; ox++ {
			var sum, sumSq, dot float64
			for y := 0; y < th; y++ {
				row := (img.Bounds().Min.Y+oy+y)*img.Stride + img.Bounds().Min.X + ox
				for x := 0; x < tw; x++ {
					v := float64(img.Pix[row+x])
					sum += v
					sumSq += v * v
					dot += v * tDev[y*tw+x]
				}
			}
			// Σ(I-Ī)(T-T̄) reduces to Σ I·(T-T̄) because Σ(T-T̄) = 0.
			iVar := sumSq - sum*sum/n
			if iVar <= 0 {
				continue
			}
			score := dot / math.Sqrt(iVar*tNorm)
			if score > best {
				best = score
				bestPt = image.Point{X: ox, Y: oy}
			}
		}
	}
	if math.IsInf(best, -1) {
		return 0, image.Point{}
	}
	return best, bestPt
}

// toGray converts any image to 8-bit grayscale.
func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray
}

// loadGray decodes a reference image file into grayscale.
func loadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return toGray(img), nil
}
