package deskew

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectSteps(t *testing.T, a *Applier, set *ResultSet) []RotateStep {
	steps := []RotateStep{}
	for step := range a.Rotate(context.Background(), set) {
		steps = append(steps, step)
	}
	return steps
}

func TestApplierSingleImages(t *testing.T) {
	dir := t.TempDir()
	tilted := writeImageFile(t, dir, "tilted.png", rotate(ruledPage(300, 200), -2), mimePNG)
	straight := writeImageFile(t, dir, "straight.png", ruledPage(300, 200), mimePNG)
	out := filepath.Join(dir, "out")
	a, err := NewApplier(out, RotateOptions{})
	require.NoError(t, err)

	set := NewResultSet([]Result{
		{Path: tilted, Angle: Some(2.0)},
		{Path: straight},
	})
	steps := collectSteps(t, a, set)
	require.Len(t, steps, 2)
	for _, s := range steps {
		require.NoError(t, s.Err)
	}

	raster, err := ReadRasterFile(filepath.Join(out, "tilted.png"))
	require.NoError(t, err)
	require.Equal(t, 300, raster.Image.Width)
	require.Equal(t, 200, raster.Image.Height)
	require.Equal(t, mimePNG, raster.MIME)

	// an empty angle is copied untouched
	org, err := os.ReadFile(straight)
	require.NoError(t, err)
	copied, err := os.ReadFile(filepath.Join(out, "straight.png"))
	require.NoError(t, err)
	require.Equal(t, org, copied)
}

func TestApplierMissingInput(t *testing.T) {
	dir := t.TempDir()
	a, err := NewApplier(dir, RotateOptions{})
	require.NoError(t, err)
	steps := collectSteps(t, a, NewResultSet([]Result{{Path: filepath.Join(dir, "gone.png"), Angle: Some(1.0)}}))
	require.Len(t, steps, 1)
	require.Error(t, steps[0].Err)
}

func TestApplierPDFKeepsPageOrder(t *testing.T) {
	dir := t.TempDir()
	pdf := writeTestPDF(t, dir, "doc.pdf", ruledPage(200, 150), ruledPage(240, 160), ruledPage(150, 200))
	out := filepath.Join(dir, "out")
	a, err := NewApplier(out, RotateOptions{})
	require.NoError(t, err)

	// page 3 has no result at all
	set := NewResultSet([]Result{
		{Path: pdf, Page: Some(2), Angle: Some(1.5)},
		{Path: pdf, Page: Some(1)},
	})
	steps := collectSteps(t, a, set)
	require.Len(t, steps, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, steps[i].Err)
		require.Equal(t, i+1, steps[i].Page.OrElse(0))
	}
	require.Equal(t, 1.5, steps[1].Angle)
	require.False(t, steps[3].Page.Valid())
	require.NoError(t, steps[3].Err)

	doc, err := NewDocumentFromFile(filepath.Join(out, "doc.pdf"))
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 3, doc.NumPages)
	widths := []int{}
	for page := 1; page <= doc.NumPages; page++ {
		raster, err := doc.PageRaster(page)
		require.NoError(t, err)
		widths = append(widths, raster.Image.Width)
	}
	require.Equal(t, []int{200, 240, 150}, widths)
}

func TestApplierStopsWithConsumer(t *testing.T) {
	dir := t.TempDir()
	pdf := writeTestPDF(t, dir, "doc.pdf", ruledPage(200, 150), ruledPage(200, 150))
	a, err := NewApplier(filepath.Join(dir, "out"), RotateOptions{})
	require.NoError(t, err)
	n := 0
	for range a.Rotate(context.Background(), NewResultSet([]Result{{Path: pdf, Page: Some(1)}})) {
		n++
		break
	}
	require.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(dir, "out", "doc.pdf"))
	require.True(t, os.IsNotExist(err))
}

func TestApplierRepeatedRowsForOneImage(t *testing.T) {
	dir := t.TempDir()
	tilted := writeImageFile(t, dir, "scan.png", rotate(ruledPage(300, 200), -2), mimePNG)
	org, err := os.ReadFile(tilted)
	require.NoError(t, err)
	out := filepath.Join(dir, "out")
	a, err := NewApplier(out, RotateOptions{})
	require.NoError(t, err)

	// the same image analysed twice, the second time with a different angle
	set := NewResultSet([]Result{
		{Path: tilted, Angle: Some(0.5)},
		{Path: tilted, Angle: Some(2.0)},
	})
	steps := collectSteps(t, a, set)
	require.Len(t, steps, 1)
	require.NoError(t, steps[0].Err)
	require.False(t, steps[0].Page.Valid())
	require.Equal(t, 2.0, steps[0].Angle)

	raster, err := ReadRasterFile(filepath.Join(out, "scan.png"))
	require.NoError(t, err)
	require.Equal(t, mimePNG, raster.MIME)
	require.Equal(t, 300, raster.Image.Width)
	require.Equal(t, 200, raster.Image.Height)
	rotated, err := os.ReadFile(filepath.Join(out, "scan.png"))
	require.NoError(t, err)
	require.NotEqual(t, org, rotated)

	// the last row wins, even when it says there is nothing to do
	steps = collectSteps(t, a, NewResultSet([]Result{
		{Path: tilted, Angle: Some(2.0)},
		{Path: tilted},
	}))
	require.Len(t, steps, 1)
	require.NoError(t, steps[0].Err)
	copied, err := os.ReadFile(filepath.Join(out, "scan.png"))
	require.NoError(t, err)
	require.Equal(t, org, copied)
}
