package deskew

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotFile = errors.New("not a regular file")

// Unit is one page to analyse: a single image file, or one page of a PDF
type Unit struct {
	Path string
	Page Optional[int] // 1-based. Empty for single images.
	MIME string
}

func (u Unit) String() string {
	if p, ok := u.Page.Get(); ok {
		return fmt.Sprintf("%v:%v", u.Path, p)
	}
	return u.Path
}

type OutcomeKind int

const (
	OutcomeSingle OutcomeKind = iota
	OutcomeContainer
	OutcomeUnreadable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSingle:
		return "single"
	case OutcomeContainer:
		return "container"
	}
	return "unreadable"
}

// DecodeOutcome is what Probe learned about a file.
// Pages is only meaningful for containers. Err is only set for unreadable files.
type DecodeOutcome struct {
	Kind  OutcomeKind
	Pages int
	MIME  string
	Err   error
}

// Probe classifies a file without decoding any pixels
func Probe(path string) DecodeOutcome {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return DecodeOutcome{Kind: OutcomeUnreadable, Err: err}
	}
	mime := baseMIME(mt)
	if mime == mimePDF {
		doc, err := NewDocumentFromFile(path)
		if err != nil {
			return DecodeOutcome{Kind: OutcomeUnreadable, MIME: mime, Err: err}
		}
		defer doc.Close()
		return DecodeOutcome{Kind: OutcomeContainer, Pages: doc.NumPages, MIME: mime}
	}
	if !decodable(mime) {
		return DecodeOutcome{Kind: OutcomeUnreadable, MIME: mime, Err: fmt.Errorf("%w: %v", ErrUnsupported, mt.String())}
	}
	return DecodeOutcome{Kind: OutcomeSingle, MIME: mime}
}

// ListUnits expands path into its analysis units.
// A missing path or a directory is an error, so that the caller can log and skip it. A file that
// can't be read as an image still yields one unit, which will fail when loaded.
func ListUnits(path string) ([]Unit, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%v: %w", path, ErrNotFile)
	}
	outcome := Probe(path)
	switch outcome.Kind {
	case OutcomeContainer:
		units := make([]Unit, 0, outcome.Pages)
		for p := 1; p <= outcome.Pages; p++ {
			units = append(units, Unit{Path: path, Page: Some(p), MIME: outcome.MIME})
		}
		return units, nil
	default:
		return []Unit{{Path: path, MIME: outcome.MIME}}, nil
	}
}

// LoadUnit produces the raster of a unit
func LoadUnit(u Unit) (*Raster, error) {
	page, isPage := u.Page.Get()
	if !isPage {
		raster, err := ReadRasterFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", filepath.Base(u.Path), err)
		}
		return raster, nil
	}
	doc, err := NewDocumentFromFile(u.Path)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filepath.Base(u.Path), err)
	}
	defer doc.Close()
	raster, err := doc.PageRaster(page)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", u, err)
	}
	return raster, nil
}
