package deskew

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/bmharper/cimg/v2"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupported = errors.New("unsupported file format")

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
	mimeTIFF = "image/tiff"
	mimeBMP  = "image/bmp"
	mimeGIF  = "image/gif"
	mimeWebP = "image/webp"
	mimePDF  = "application/pdf"
)

// Raster is a decoded image along with the encoded bytes it came from.
// Raw is nil when the image was rendered rather than decoded.
type Raster struct {
	Image *cimg.Image
	Raw   []byte
	MIME  string
}

func decodable(mime string) bool {
	switch mime {
	case mimeJPEG, mimePNG, mimeTIFF, mimeBMP, mimeGIF, mimeWebP:
		return true
	}
	return false
}

// DecodeRaster sniffs the format of raw and decodes it
func DecodeRaster(raw []byte) (*Raster, error) {
	mt := mimetype.Detect(raw)
	mime := baseMIME(mt)
	if !decodable(mime) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, mt.String())
	}
	if mime == mimeJPEG {
		// libjpeg-turbo is much faster, but can't read everything (eg CMYK), so fall through on failure
		if img, err := cimg.Decompress(raw); err == nil {
			return &Raster{Image: img, Raw: raw, MIME: mime}, nil
		}
	}
	std, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", mime, err)
	}
	return &Raster{Image: fromStdImage(std), Raw: raw, MIME: mime}, nil
}

func ReadRasterFile(filename string) (*Raster, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeRaster(raw)
}

// EncodeRaster encodes img in the given format. Unknown formats are written as PNG.
func EncodeRaster(img *cimg.Image, mime string, quality int) ([]byte, error) {
	if mime == mimeJPEG {
		return compressJPEG(img, quality)
	}
	std, err := toStdImage(img)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	switch mime {
	case mimeTIFF:
		err = tiff.Encode(buf, std, &tiff.Options{Compression: tiff.Deflate})
	case mimeBMP:
		err = bmp.Encode(buf, std)
	case mimeGIF:
		err = gif.Encode(buf, std, nil)
	default:
		err = png.Encode(buf, std)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressJPEG(img *cimg.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = 95
	}
	if img.NChan() != 3 {
		img = img.ToRGB()
	}
	return cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling444, quality, 0))
}

// mimetype reports parameters (eg "; charset=") for some types, which we don't want
func baseMIME(mt *mimetype.MIME) string {
	for _, m := range []string{mimeJPEG, mimePNG, mimeTIFF, mimeBMP, mimeGIF, mimeWebP, mimePDF} {
		if mt.Is(m) {
			return m
		}
	}
	return mt.String()
}

// Opaque images are converted by cimg. Anything it rejects, and anything with transparency, is
// flattened to RGB here with the transparency composited onto white, so that scan margins stay white.
func fromStdImage(src image.Image) *cimg.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		if img, err := cimg.FromImage(src, true); err == nil {
			return img
		}
	}
	return flatten(src)
}

func flatten(src image.Image) *cimg.Image {
	b := src.Bounds()
	dst := cimg.NewImage(b.Dx(), b.Dy(), cimg.PixelFormatRGB)
	for y := 0; y < b.Dy(); y++ {
		line := dst.Pixels[y*dst.Stride : y*dst.Stride+b.Dx()*3]
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			a := uint32(c.A)
			line[x*3] = byte((uint32(c.R)*a + 255*(255-a)) / 255)
			line[x*3+1] = byte((uint32(c.G)*a + 255*(255-a)) / 255)
			line[x*3+2] = byte((uint32(c.B)*a + 255*(255-a)) / 255)
		}
	}
	return dst
}

// Go has no 3 channel image type, so RGB gets an opaque alpha channel before cimg wraps it
func toStdImage(img *cimg.Image) (image.Image, error) {
	if img.NChan() == 3 {
		rgb := img
		if rgb.Format != cimg.PixelFormatRGB {
			rgb = img.ToRGB()
		}
		rgba := cimg.NewImage(rgb.Width, rgb.Height, cimg.PixelFormatRGBA)
		for y := 0; y < rgb.Height; y++ {
			src := rgb.Pixels[y*rgb.Stride : y*rgb.Stride+rgb.Width*3]
			dst := rgba.Pixels[y*rgba.Stride : y*rgba.Stride+rgb.Width*4]
			for x := 0; x < rgb.Width; x++ {
				copy(dst[x*4:x*4+3], src[x*3:x*3+3])
				dst[x*4+3] = 255
			}
		}
		img = rgba
	}
	return img.ToImage()
}
