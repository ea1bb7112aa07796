package vision

// Element is a binary structuring element: either the 3x3 cross, or a filled Width x Height rectangle
type Element struct {
	Width  int
	Height int
	Cross  bool
}

// Cross is the 4-connected 3x3 element, the default footprint for binary dilation
var Cross = Element{Width: 3, Height: 3, Cross: true}

func Rect(width, height int) Element {
	return Element{Width: width, Height: height}
}

// Dilate returns the binary dilation of m by se. Pixels outside the image count as unset.
func Dilate(m *Mask, se Element) *Mask {
	if se.Cross {
		return dilateCross(m)
	}
	return dilateRect(m, se.Width, se.Height)
}

func dilateCross(m *Mask) *Mask {
	w, h := m.Width, m.Height
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.Bits[y*w+x] {
				continue
			}
			out.Bits[y*w+x] = true
			if x > 0 {
				out.Bits[y*w+x-1] = true
			}
			if x < w-1 {
				out.Bits[y*w+x+1] = true
			}
			if y > 0 {
				out.Bits[(y-1)*w+x] = true
			}
			if y < h-1 {
				out.Bits[(y+1)*w+x] = true
			}
		}
	}
	return out
}

// A rectangle is separable, so dilate rows then columns with a running window count
func dilateRect(m *Mask, sw, sh int) *Mask {
	w, h := m.Width, m.Height
	tmp := NewMask(w, h)
	line := make([]bool, max(w, h))
	for y := 0; y < h; y++ {
		dilateLine(m.Bits[y*w:(y+1)*w], tmp.Bits[y*w:(y+1)*w], sw)
	}
	out := NewMask(w, h)
	col := make([]bool, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = tmp.Bits[y*w+x]
		}
		dilateLine(col, line[:h], sh)
		for y := 0; y < h; y++ {
			out.Bits[y*w+x] = line[y]
		}
	}
	return out
}

// 1-D dilation by a window of size n.
// For even n a set pixel spreads one further backwards than forwards.
func dilateLine(src, dst []bool, n int) {
	if n <= 1 {
		copy(dst, src)
		return
	}
	before := n / 2
	after := n - 1 - before
	count := 0
	length := len(src)
	// count of set pixels in src[i-after .. i+before]
	for j := 0; j <= before && j < length; j++ {
		if src[j] {
			count++
		}
	}
	for i := 0; i < length; i++ {
		dst[i] = count > 0
		if add := i + before + 1; add < length && src[add] {
			count++
		}
		if drop := i - after; drop >= 0 && src[drop] {
			count--
		}
	}
}
