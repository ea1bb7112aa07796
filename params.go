package deskew

import (
	"github.com/bmharper/deskew/internal/geom"
	"github.com/bmharper/deskew/internal/vision"
	"github.com/rs/zerolog"
)

// Primitives are the image operations the detectors are built from
type Primitives interface {
	// Edges returns the Canny edge mask of p, smoothed with the given sigma
	Edges(p *vision.Plane, sigma float64) *vision.Mask
	// Lines returns segments of at least lineLength whose normal angle is one of thetas (radians)
	Lines(edges *vision.Mask, lineLength, lineGap int, thetas []float64) []geom.Segment
	Dilate(m *vision.Mask, se vision.Element) *vision.Mask
	// Threshold returns the Otsu threshold of p
	Threshold(p *vision.Plane) float64
}

// Parameters of the detection pipeline.
// Every stage reads its thresholds from here. Nothing in the pipeline is global.
type Params struct {
	MarginDivisor        int     // Crop Width/MarginDivisor pixels from each edge
	LowContrastFraction  float64 // Pages whose percentile spread is below this fraction of 0..255 are blank
	LowerPercentile      float64
	UpperPercentile      float64
	WindowSize           int     // Half height (or width) of the strip around the ink peak
	StripSigma           float64 // Canny sigma on the strip
	StripLineFraction    float64 // Minimum line length, as a fraction of the strip length
	StripLineGap         int     // Maximum gap bridged inside one strip line
	BandDegrees          float64 // Half width of the orientation bands
	StepDegrees          float64 // Theta resolution of the line transform
	FallbackScale        int     // Downsample factor of the fallback detector
	FallbackKernel       int     // Side of the square dilation element
	FallbackSigma        float64 // Canny sigma on the dilated mask
	FallbackLineFraction float64 // Minimum line length, as a fraction of the page height
	FallbackLineGap      int
	WhiteLines           bool    // Try docangle when every Hough stage fails
	WhiteLinesMaxDegrees float64 // Search range of the docangle stage

	Debug    bool   // Write overlay images into DebugDir
	DebugDir string // Must exist when Debug is set

	Log        zerolog.Logger
	Primitives Primitives
}

// Create a new Params with defaults
func NewParams() *Params {
	return &Params{
		MarginDivisor:        25,
		LowContrastFraction:  0.05,
		LowerPercentile:      1,
		UpperPercentile:      99,
		WindowSize:           150,
		StripSigma:           2,
		StripLineFraction:    0.15,
		StripLineGap:         2,
		BandDegrees:          3,
		StepDegrees:          0.02,
		FallbackScale:        2,
		FallbackKernel:       60,
		FallbackSigma:        3,
		FallbackLineFraction: 0.04,
		FallbackLineGap:      6,
		WhiteLinesMaxDegrees: 3,
		Log:                  zerolog.Nop(),
		Primitives:           defaultPrimitives(),
	}
}

func (p *Params) rowThetas() []float64 {
	return geom.ThetaBand(-90, p.BandDegrees, p.StepDegrees)
}

func (p *Params) columnThetas() []float64 {
	return geom.ThetaBand(0, p.BandDegrees, p.StepDegrees)
}

// Both bands, columns first
func (p *Params) allThetas() []float64 {
	return append(p.columnThetas(), p.rowThetas()...)
}

// WithLogger returns a shallow copy of p that logs to log
func (p *Params) WithLogger(log zerolog.Logger) *Params {
	c := *p
	c.Log = log
	return &c
}
