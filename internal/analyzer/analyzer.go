package analyzer

import (
	"go-camera-inspector/pkg/models"
)

// Category names, in report order.
const (
	CategoryQuality   = "quality"
	CategorySharpness = "sharpness"
	CategoryNoise     = "noise"
	CategoryColor     = "color"
)

// Analyzer computes one category of named metrics for a decoded image.
// Implementations are stateless between calls and never mutate the
// pixel buffer; each call returns a fresh result map.
type Analyzer interface {
	Category() string
	Analyze(px *PixelBuffer) *models.CategoryResult
}

// Window is a min/max threshold pair.
type Window struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the window, inclusive.
func (w Window) Contains(v float64) bool {
	return v >= w.Min && v <= w.Max
}

// Thresholds carries the configurable verdict bounds shared by the
// analyzers. Passed by value into each constructor; no global state.
type Thresholds struct {
	Brightness   Window
	Contrast     Window
	SharpnessMin float64
	NoiseMax     float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Brightness:   Window{Min: 50, Max: 200},
		Contrast:     Window{Min: 30, Max: 150},
		SharpnessMin: 100,
		NoiseMax:     20,
	}
}
