package deskew

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/gen2brain/go-fitz"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var ErrNoImage = errors.New("no image on page")

// Document is a PDF whose pages are scanned images
type Document struct {
	fz        *fitz.Document
	reader    io.ReadSeeker
	NumPages  int
	RenderDPI float64 // Resolution used for pages that have no embedded image. Zero disables rendering.
}

func newDocument(fz *fitz.Document, reader io.ReadSeeker) *Document {
	return &Document{
		fz:        fz,
		reader:    reader,
		NumPages:  fz.NumPage(),
		RenderDPI: 150,
	}
}

// Load a PDF from a file
func NewDocumentFromFile(filename string) (*Document, error) {
	fz, err := fitz.New(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		fz.Close()
		return nil, err
	}
	return newDocument(fz, file), nil
}

// Load a PDF from bytes
func NewDocumentFromMemory(doc []byte) (*Document, error) {
	fz, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, err
	}
	return newDocument(fz, bytes.NewReader(doc)), nil
}

func (d *Document) Close() {
	if closer, ok := d.reader.(io.Closer); ok {
		closer.Close()
	}
	d.fz.Close()
}

// Returns true if this PDF is a scanned document
func (d *Document) IsScanned() (bool, error) {
	// pdfcpu can't extract text, so we ask MuPDF. A document with one image per page is not
	// necessarily scanned, because the image could be a high resolution logo.
	for i := range d.NumPages {
		txt, err := d.fz.Text(i)
		if err != nil {
			return false, err
		}
		if txt != "" {
			return false, nil
		}
	}
	return true, nil
}

// PageRaster returns the image on a page (1-based).
// If a page holds several images, the largest one is the scan. A page with no usable image is
// rendered by MuPDF instead, and the returned Raw is nil.
func (d *Document) PageRaster(page int) (*Raster, error) {
	if page < 1 || page > d.NumPages {
		return nil, fmt.Errorf("page %v out of range 1..%v", page, d.NumPages)
	}
	raster, err := d.embeddedImage(page)
	if err == nil {
		return raster, nil
	}
	if d.RenderDPI <= 0 {
		return nil, err
	}
	rendered, rerr := d.fz.ImageDPI(page-1, d.RenderDPI)
	if rerr != nil {
		return nil, fmt.Errorf("page %v: %w (render failed: %v)", page, err, rerr)
	}
	return &Raster{Image: fromStdImage(rendered)}, nil
}

func (d *Document) embeddedImage(page int) (*Raster, error) {
	if _, err := d.reader.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	images, err := pdfapi.ExtractImagesRaw(d.reader, []string{strconv.Itoa(page)}, nil)
	if err != nil {
		return nil, err
	}
	if len(images) != 1 {
		return nil, fmt.Errorf("ExtractImagesRaw returned an unexpected number of results (%v) on page %v", len(images), page)
	}
	imageMap := images[0]
	var best []byte
	bestArea := -1
	for _, objNr := range slices.Sorted(maps.Keys(imageMap)) {
		img := imageMap[objNr]
		raw, err := io.ReadAll(img)
		if err != nil {
			return nil, err
		}
		if area := img.Width * img.Height; area > bestArea {
			best = raw
			bestArea = area
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w %v", ErrNoImage, page)
	}
	return DecodeRaster(best)
}

// BuildPDF creates a new PDF with one page per image, each page the size of its image
func BuildPDF(images []io.Reader) ([]byte, error) {
	output := &bytes.Buffer{}
	importConfig := pdfcpu.DefaultImportConfig()
	importConfig.Scale = 1
	importConfig.Pos = types.Full
	if err := pdfapi.ImportImages(nil, output, images, importConfig, nil); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}
