package report

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/bmharper/deskew"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	histogramBins  = 20
	histogramMax   = 1.0 // degrees
	histogramWidth = 40  // characters of the longest bar
)

// Summary is the distribution of |angle| over the results that have one
type Summary struct {
	Counts []int     // histogramBins bins over [0, histogramMax]. Larger angles are not counted.
	Edges  []float64 // len(Counts)+1 bin edges
	Angles []float64 // sorted magnitudes
}

func Summarize(results []deskew.Result) Summary {
	s := Summary{
		Counts: make([]int, histogramBins),
		Edges:  make([]float64, histogramBins+1),
	}
	for i := range s.Edges {
		s.Edges[i] = histogramMax * float64(i) / histogramBins
	}
	for _, r := range results {
		a, ok := r.Angle.Get()
		if !ok {
			continue
		}
		a = math.Abs(a)
		s.Angles = append(s.Angles, a)
		if a > histogramMax {
			continue
		}
		// the last bin is closed on the right
		bin := min(int(a/histogramMax*histogramBins), histogramBins-1)
		s.Counts[bin]++
	}
	slices.Sort(s.Angles)
	return s
}

// Percentile with linear interpolation between closest ranks. NaN when there are no angles.
func (s Summary) Percentile(q float64) float64 {
	n := len(s.Angles)
	if n == 0 {
		return math.NaN()
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, n-1)
	frac := pos - float64(lo)
	return s.Angles[lo] + (s.Angles[hi]-s.Angles[lo])*frac
}

func (s Summary) label(i int) string {
	return fmt.Sprintf("%.2f° - %.2f°", s.Edges[i], s.Edges[i+1])
}

// Histogram prints the skew statistics as a horizontal bar chart
func Histogram(w io.Writer, results []deskew.Result) error {
	s := Summarize(results)
	most := slices.Max(s.Counts)
	fmt.Fprintf(w, "\n=== Skew statistics ===\n")
	for i, c := range s.Counts {
		bar := 0
		if most > 0 {
			bar = int(math.Round(float64(c) / float64(most) * histogramWidth))
		}
		fmt.Fprintf(w, "%s  [%3d]  %s\n", s.label(i), c, strings.Repeat("▇", bar))
	}
	fmt.Fprintf(w, "Samples: %v\n", len(s.Angles))
	if len(s.Angles) == 0 {
		return nil
	}
	fmt.Fprintf(w, "50th percentile: %.2g°\n", s.Percentile(50))
	_, err := fmt.Fprintf(w, "90th percentile: %.2g°\n", s.Percentile(90))
	return err
}

// HistogramPNG renders the same bins as a bar chart image
func HistogramPNG(w io.Writer, results []deskew.Result) error {
	s := Summarize(results)
	bars := make([]chart.Value, len(s.Counts))
	for i, c := range s.Counts {
		bars[i] = chart.Value{Value: float64(c), Label: fmt.Sprintf("%.2f", s.Edges[i])}
	}
	graph := chart.BarChart{
		Title:      fmt.Sprintf("Skew of %v pages (degrees)", len(s.Angles)),
		Width:      1600,
		Height:     800,
		BarWidth:   50,
		BarSpacing: 20,
		Bars:       bars,
	}
	return graph.Render(chart.PNG, w)
}
