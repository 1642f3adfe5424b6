package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522848

// NewCanvas returns a blank RGBA surface filled with bg.
func NewCanvas(width, height int, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return img
}

// FillRect paints r in c, clipped to the canvas.
func FillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillCircle paints an anti-aliased disc centred on (cx, cy).
func FillCircle(dst *image.RGBA, cx, cy, radius float32, c color.Color) {
	if radius <= 0 {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	k := radius * kappa
	z.MoveTo(cx+radius, cy)
	z.CubeTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
	z.CubeTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
	z.CubeTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
	z.CubeTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// DrawGridLines draws cells+1 horizontal and vertical lines spaced
// cellSize pixels apart.
func DrawGridLines(dst *image.RGBA, cells int, cellSize float64, c color.Color, width int) {
	if width < 1 {
		width = 1
	}
	b := dst.Bounds()
	for i := 0; i <= cells; i++ {
		p := int(float64(i) * cellSize)
		if p >= b.Max.X {
			p = b.Max.X - width
		}
		FillRect(dst, image.Rect(b.Min.X, p, b.Max.X, p+width), c)
		FillRect(dst, image.Rect(p, b.Min.Y, p+width, b.Max.Y), c)
	}
}

// DrawLabel writes text with its baseline starting at (x, y).
func DrawLabel(dst *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// ShiftColor returns a lighter version of c.
func ShiftColor(c color.Color, amount int) color.RGBA {
	r, g, b, a := c.RGBA()
	inc := uint32(amount) << 8

	r = clamp16(r + inc)
	g = clamp16(g + inc)
	b = clamp16(b + inc)
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func clamp16(v uint32) uint32 {
	const max = 0xFFFF
	if v > max {
		return max
	}
	return v
}
