package deskew

import (
	"cmp"
	"slices"
)

// Method records which stage produced a Result
type Method string

const (
	MethodNone        Method = "none"         // Every stage ran and nothing was found
	MethodLowContrast Method = "low-contrast" // Blank page
	MethodRows        Method = "rows"         // Median of the horizontal rule detector
	MethodColumns     Method = "columns"      // Median of the vertical rule detector
	MethodFallback    Method = "fallback"     // Mean of the dilated whole-page detector
	MethodWhiteLines  Method = "white-lines"  // docangle estimate, only when enabled
	MethodFailed      Method = "failed"       // Unit could not be decoded or analysis crashed
)

// Result is the outcome of analysing one Unit.
// An empty Angle means no rotation should be applied.
type Result struct {
	Path     string
	Page     Optional[int] // 1-based page within a container
	Angle    Optional[float64]
	Variance Optional[float64]
	Width    int // Page width in pixels, before margin cropping
	Height   int
	Method   Method
}

// Undetermined reports whether no angle was found
func (r Result) Undetermined() bool {
	return !r.Angle.Valid()
}

// ResultSet groups results by file, in the order each file was first seen, with each file's results sorted by page
type ResultSet struct {
	Files  []string
	byFile map[string][]Result
}

func NewResultSet(results []Result) *ResultSet {
	s := &ResultSet{
		byFile: map[string][]Result{},
	}
	for _, r := range results {
		if _, ok := s.byFile[r.Path]; !ok {
			s.Files = append(s.Files, r.Path)
		}
		s.byFile[r.Path] = append(s.byFile[r.Path], r)
	}
	for _, list := range s.byFile {
		slices.SortStableFunc(list, func(a, b Result) int {
			return cmp.Compare(a.Page.OrElse(0), b.Page.OrElse(0))
		})
	}
	return s
}

// Results for one file, sorted by page
func (s *ResultSet) Results(path string) []Result {
	return s.byFile[path]
}

// Filter keeps only the named files, preserving their order in the set
func (s *ResultSet) Filter(paths []string) *ResultSet {
	keep := map[string]bool{}
	for _, p := range paths {
		keep[p] = true
	}
	out := &ResultSet{byFile: map[string][]Result{}}
	for _, f := range s.Files {
		if keep[f] {
			out.Files = append(out.Files, f)
			out.byFile[f] = s.byFile[f]
		}
	}
	return out
}
