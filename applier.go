package deskew

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/bmharper/cimg/v2"
	"github.com/bmharper/textorient"
	"github.com/rs/zerolog"
)

type RotateOptions struct {
	Orient  *textorient.Orient // If not nil, pages are made upright after straightening
	Log     zerolog.Logger
	Quality int // JPEG quality. Zero means 95.
}

// RotateStep reports one straightened unit.
// For a PDF there is one step per page, and then a final step with an empty Page once the
// document has been written.
type RotateStep struct {
	Path   string
	Page   Optional[int]
	Angle  float64
	Output string
	Err    error
}

// Applier writes straightened copies of analysed files into one output directory
type Applier struct {
	outDir string
	opts   RotateOptions
}

func NewApplier(outDir string, opts RotateOptions) (*Applier, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Applier{outDir: outDir, opts: opts}, nil
}

// Rotate straightens every file of set, in order.
// Iteration stops early when the consumer stops or ctx is cancelled.
func (a *Applier) Rotate(ctx context.Context, set *ResultSet) iter.Seq[RotateStep] {
	return func(yield func(RotateStep) bool) {
		for _, path := range set.Files {
			if ctx.Err() != nil {
				return
			}
			results := set.Results(path)
			if !paged(results) {
				// repeated runs append rows, and the newest one wins
				latest := results[len(results)-1]
				if !yield(a.rotateSingle(path, latest.Angle.OrElse(0))) {
					return
				}
				continue
			}
			if !a.rotateDocument(ctx, path, results, yield) {
				return
			}
		}
	}
}

func (a *Applier) output(path string) string {
	return filepath.Join(a.outDir, filepath.Base(path))
}

func (a *Applier) rotateSingle(path string, angle float64) RotateStep {
	step := RotateStep{Path: path, Angle: angle, Output: a.output(path)}
	raw, err := os.ReadFile(path)
	if err != nil {
		step.Err = err
		return step
	}
	if angle != 0 || a.opts.Orient != nil {
		raster, err := DecodeRaster(raw)
		if err != nil {
			step.Err = err
			return step
		}
		fixed, changed, err := a.straighten(raster.Image, angle)
		if err != nil {
			step.Err = err
			return step
		}
		if changed {
			if raw, err = EncodeRaster(fixed, raster.MIME, a.opts.Quality); err != nil {
				step.Err = err
				return step
			}
		}
	}
	step.Err = os.WriteFile(step.Output, raw, 0644)
	if step.Err == nil {
		a.opts.Log.Info().Str("file", path).Float64("angle", angle).Msg("rotated")
	}
	return step
}

// rotateDocument yields one step per page and a final step for the rebuilt PDF.
// It returns false if the consumer asked to stop.
func (a *Applier) rotateDocument(ctx context.Context, path string, results []Result, yield func(RotateStep) bool) bool {
	doc, err := NewDocumentFromFile(path)
	if err != nil {
		return yield(RotateStep{Path: path, Output: a.output(path), Err: err})
	}
	defer doc.Close()

	// results are sorted stably by page, so a later row for the same page replaces an earlier one
	angles := map[int]float64{}
	for _, r := range results {
		if p, ok := r.Page.Get(); ok {
			angles[p] = r.Angle.OrElse(0)
		}
	}

	pages := []io.Reader{}
	for page := 1; page <= doc.NumPages; page++ {
		if ctx.Err() != nil {
			return false
		}
		angle := angles[page]
		encoded, err := a.documentPage(doc, page, angle)
		step := RotateStep{Path: path, Page: Some(page), Angle: angle, Err: err}
		if err != nil {
			a.opts.Log.Warn().Err(err).Str("file", path).Int("page", page).Msg("page left out")
		} else {
			pages = append(pages, bytes.NewReader(encoded))
		}
		if !yield(step) {
			return false
		}
	}

	final := RotateStep{Path: path, Output: a.output(path)}
	if len(pages) == 0 {
		final.Err = fmt.Errorf("%v: %w", filepath.Base(path), ErrNoImage)
		return yield(final)
	}
	pdf, err := BuildPDF(pages)
	if err == nil {
		err = os.WriteFile(final.Output, pdf, 0644)
	}
	final.Err = err
	if err == nil {
		a.opts.Log.Info().Str("file", path).Int("pages", len(pages)).Msg("rebuilt")
	}
	return yield(final)
}

// documentPage produces an image that pdfcpu can import for one page
func (a *Applier) documentPage(doc *Document, page int, angle float64) ([]byte, error) {
	raster, err := doc.PageRaster(page)
	if err != nil {
		return nil, err
	}
	fixed, changed, err := a.straighten(raster.Image, angle)
	if err != nil {
		return nil, err
	}
	if !changed && raster.Raw != nil && importable(raster.MIME) {
		return raster.Raw, nil
	}
	mime := raster.MIME
	if mime != mimeJPEG {
		mime = mimePNG
	}
	return EncodeRaster(fixed, mime, a.opts.Quality)
}

func (a *Applier) straighten(img *cimg.Image, angle float64) (fixed *cimg.Image, changed bool, err error) {
	fixed, err = Straighten(img, angle, a.opts.Orient)
	if err != nil {
		return nil, false, err
	}
	return fixed, fixed != img, nil
}

// Straighten undoes a measured skew, and then makes img upright if orient is not nil.
// A positive angle means the content leans counter-clockwise, so img is turned clockwise by angle.
// When nothing needed to change, img itself is returned.
func Straighten(img *cimg.Image, angle float64, orient *textorient.Orient) (*cimg.Image, error) {
	fixed := img
	if angle != 0 {
		fixed = rotate(img, angle)
	}
	if orient == nil {
		return fixed, nil
	}
	return orient.MakeUpright(fixed)
}

// paged reports whether any result names a page, which is how container files are recorded
func paged(results []Result) bool {
	for _, r := range results {
		if r.Page.Valid() {
			return true
		}
	}
	return false
}

func importable(mime string) bool {
	return mime == mimeJPEG || mime == mimePNG || mime == mimeTIFF
}
