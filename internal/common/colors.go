package common

import (
	"image/color"
)

// Grid world palette
var (
	BackgroundColor = color.RGBA{255, 255, 255, 255}
	GridLineColor   = color.RGBA{0, 0, 0, 255}
	AgentColor      = color.RGBA{0, 0, 255, 255}
	TargetColor     = color.RGBA{255, 0, 0, 255}
	LabelColor      = color.RGBA{40, 40, 40, 255}
)

// TargetHueShift lightens the inner marker drawn on the target cell.
var TargetHueShift = 60

// EpisodeColors cycles through series colours for returns charts.
var EpisodeColors = []color.RGBA{
	{200, 50, 50, 255},
	{50, 100, 200, 255},
	{50, 200, 50, 255},
	{200, 200, 50, 255},
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}
