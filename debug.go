package deskew

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/bmharper/deskew/internal/geom"
	"github.com/bmharper/deskew/internal/vision"
)

const overlayEdgeGrey = 0.3

// overlay draws edges in dark grey and the detected segments over them in white
func overlay(edges *vision.Mask, segments []geom.Segment) *vision.Plane {
	p := edges.Scaled(overlayEdgeGrey)
	for _, s := range segments {
		for _, px := range geom.LineAA(s.X0, s.Y0, s.X1, s.Y1) {
			if px.X < 0 || px.Y < 0 || px.X >= p.Width || px.Y >= p.Height {
				continue
			}
			i := px.Y*p.Width + px.X
			p.Pix[i] = (1-px.Value)*p.Pix[i] + px.Value
		}
	}
	return p
}

// debugSink writes the overlay images of one unit. Names are <file>_<page>_<tail>.png.
type debugSink struct {
	params *Params
	prefix string
}

func newDebugSink(path string, page Optional[int], params *Params) *debugSink {
	return &debugSink{
		params: params,
		prefix: filepath.Base(path) + "_" + page.String() + "_",
	}
}

func (d *debugSink) plane(tail string, p *vision.Plane) {
	if !d.params.Debug || p == nil {
		return
	}
	img := &Image{Width: p.Width, Height: p.Height, Pixels: p.Bytes()}
	d.write(tail, img)
}

func (d *debugSink) mask(tail string, m *vision.Mask) {
	if !d.params.Debug || m == nil {
		return
	}
	d.plane(tail, m.Plane())
}

func (d *debugSink) write(tail string, img *Image) {
	name := filepath.Join(d.params.DebugDir, d.prefix+tail+".png")
	if err := writePNG(name, img); err != nil {
		d.params.Log.Warn().Err(err).Str("file", name).Msg("failed to write debug image")
	}
}

func writePNG(filename string, img *Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img.Gray()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func angleTag(angle float64) string {
	return fmt.Sprint(angle)
}
