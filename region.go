package deskew

import (
	"github.com/bmharper/deskew/internal/vision"
)

// region is the cropped page and the positions most likely to hold a rule
type region struct {
	pos        *Image // cropped page
	neg        *Image // inverted cropped page, ie ink mass
	pageWidth  int
	pageHeight int

	peakRow int   // row with the most ink
	rowPeak int64 // ink mass of peakRow
	peakCol int
	colPeak int64
}

// selectRegion crops the margins, which are often dirty from skewed scanning, and locates the
// row and column with the most ink. It returns nil for a low contrast (blank) page.
func selectRegion(page *Image, params *Params) *region {
	pos := page.crop(page.Width / params.MarginDivisor)
	if vision.LowContrast(pos.Pixels, params.LowContrastFraction, params.LowerPercentile, params.UpperPercentile) {
		return nil
	}
	r := &region{
		pos:        pos,
		neg:        pos.invert(),
		pageWidth:  page.Width,
		pageHeight: page.Height,
	}
	rows, cols := inkProfiles(r.neg)
	r.peakRow, r.rowPeak = argmax(rows)
	r.peakCol, r.colPeak = argmax(cols)
	return r
}

// Row sums (along x) and column sums (along y)
func inkProfiles(neg *Image) (rows, cols []int64) {
	rows = make([]int64, neg.Height)
	cols = make([]int64, neg.Width)
	for y := 0; y < neg.Height; y++ {
		line := neg.Pixels[y*neg.Width : (y+1)*neg.Width]
		var sum int64
		for x, v := range line {
			sum += int64(v)
			cols[x] += int64(v)
		}
		rows[y] = sum
	}
	return
}

// First index of the maximum
func argmax(values []int64) (int, int64) {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return best, values[best]
}
