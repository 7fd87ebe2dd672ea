// Package vision locates controls by template matching against live screen
// captures. It is the escape hatch for controls rendered by embedded widgets
// outside the automatable page tree.
package vision

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
)

// Screen abstracts capture and input injection so the correlation algorithm
// and the pointer mechanism are independently substitutable.
type Screen interface {
	// Capture grabs the full current screen.
	Capture() (image.Image, error)
	// Click moves the system pointer to (x, y) and clicks.
	Click(x, y int)
	// Type writes text with inter-character pacing. Pacing emulates human
	// input timing and keeps the target from coalescing input events.
	Type(text string, pace time.Duration)
}

// Desktop drives the real display through robotgo.
type Desktop struct{}

// Capture grabs the primary display.
func (Desktop) Capture() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}

// Click moves the pointer and issues a left click.
func (Desktop) Click(x, y int) {
	robotgo.Move(x, y)
	robotgo.Click("left")
}

// Type writes text one rune at a time, sleeping between runes.
func (Desktop) Type(text string, pace time.Duration) {
	for _, r := range text {
		robotgo.TypeStr(string(r))
		time.Sleep(pace)
	}
}
