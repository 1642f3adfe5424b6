package render

import (
	"image"
	"image/color"
)

// Frame is an RGB pixel buffer with axes (row, column, channel), the
// value returned by rgb_array rendering.
type Frame struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// FrameFromRGBA copies the canvas into a Frame, dropping alpha.
func FrameFromRGBA(img *image.RGBA) *Frame {
	b := img.Bounds()
	f := &Frame{
		Height:   b.Dy(),
		Width:    b.Dx(),
		Channels: 3,
		Pix:      make([]uint8, b.Dx()*b.Dy()*3),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			f.Pix[i] = row[x*4]
			f.Pix[i+1] = row[x*4+1]
			f.Pix[i+2] = row[x*4+2]
			i += 3
		}
	}
	return f
}

// Shape returns (height, width, channels).
func (f *Frame) Shape() [3]int {
	return [3]int{f.Height, f.Width, f.Channels}
}

// At returns the value of one channel of one pixel.
func (f *Frame) At(row, col, ch int) uint8 {
	return f.Pix[(row*f.Width+col)*f.Channels+ch]
}

// RGB returns the colour at (row, col).
func (f *Frame) RGB(row, col int) color.RGBA {
	i := (row*f.Width + col) * f.Channels
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 255}
}

// RGBA converts the frame back to an opaque image, e.g. for PNG encoding.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			img.SetRGBA(col, row, f.RGB(row, col))
		}
	}
	return img
}
