// Package report persists detection results and summarises them.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bmharper/deskew"
)

var ErrMalformed = errors.New("malformed results file")

// Header is the first line of every results file
var Header = []string{
	"Input File",
	"Page Number",
	"Computed angle",
	"Variance of computed angles",
	"Image width (px)",
	"Image height (px)",
}

// Filename appends the report extension to a results name
func Filename(results string) string {
	return results + ".csv"
}

// Writer appends result rows to a results file.
// The header is only written when the file is new or empty, so several runs can share one file.
type Writer struct {
	f *os.File
}

func Create(filename string) (*Writer, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &Writer{f: f}
	if st.Size() == 0 {
		quoted := make([]string, len(Header))
		for i, h := range Header {
			quoted[i] = quote(h)
		}
		if _, err := fmt.Fprintln(f, strings.Join(quoted, ",")); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) Write(r deskew.Result) error {
	_, err := io.WriteString(w.f, FormatRow(r)+"\n")
	return err
}

func (w *Writer) WriteAll(results []deskew.Result) error {
	for _, r := range results {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Close() error {
	return w.f.Close()
}

// FormatRow renders one result. The path is always quoted, and empty optional fields are left blank.
func FormatRow(r deskew.Result) string {
	return strings.Join([]string{
		quote(r.Path),
		r.Page.String(),
		formatFloat(r.Angle),
		formatFloat(r.Variance),
		strconv.Itoa(r.Width),
		strconv.Itoa(r.Height),
	}, ",")
}

func formatFloat(v deskew.Optional[float64]) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Load reads every row of a results file
func Load(filename string) ([]deskew.Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads results in the format written by Writer. Any row that doesn't parse fails the whole read.
func Parse(r io.Reader) ([]deskew.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	results := []deskew.Result{}
	for i, rec := range records {
		if rec[0] == Header[0] {
			// several runs appending to a file that was truncated in between can repeat the header
			continue
		}
		res, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %v: %v", ErrMalformed, i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func parseRecord(rec []string) (deskew.Result, error) {
	res := deskew.Result{Path: rec[0]}
	if rec[0] == "" {
		return res, errors.New("empty path")
	}
	if rec[1] != "" {
		page, err := strconv.Atoi(rec[1])
		if err != nil || page < 1 {
			return res, fmt.Errorf("page %q", rec[1])
		}
		res.Page = deskew.Some(page)
	}
	var err error
	if res.Angle, err = parseOptional(rec[2]); err != nil {
		return res, fmt.Errorf("angle %q", rec[2])
	}
	if res.Variance, err = parseOptional(rec[3]); err != nil {
		return res, fmt.Errorf("variance %q", rec[3])
	}
	if res.Width, err = strconv.Atoi(rec[4]); err != nil {
		return res, fmt.Errorf("width %q", rec[4])
	}
	if res.Height, err = strconv.Atoi(rec[5]); err != nil {
		return res, fmt.Errorf("height %q", rec[5])
	}
	return res, nil
}

func parseOptional(s string) (deskew.Optional[float64], error) {
	if s == "" {
		return deskew.None[float64](), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return deskew.None[float64](), err
	}
	return deskew.Some(f), nil
}
