package gridworld

import (
	"strings"

	"github.com/logrusorgru/aurora"
)

// FormatBoard draws the grid as text: A marks the agent, T the target and
// * the agent standing on the target. Observations that are not four
// in-grid coordinates render as an empty string.
func FormatBoard(size int, obs []float32, colors bool) string {
	if len(obs) != 4 {
		return ""
	}
	au := aurora.NewAurora(colors)
	ax, ay, tx, ty := int(obs[0]), int(obs[1]), int(obs[2]), int(obs[3])

	var b strings.Builder
	border := "+" + strings.Repeat("-", size*2+1) + "+"
	b.WriteString(border)
	b.WriteByte('\n')
	for y := 0; y < size; y++ {
		b.WriteString("| ")
		for x := 0; x < size; x++ {
			switch {
			case x == ax && y == ay && x == tx && y == ty:
				b.WriteString(au.Green("*").Bold().String())
			case x == ax && y == ay:
				b.WriteString(au.Blue("A").Bold().String())
			case x == tx && y == ty:
				b.WriteString(au.Red("T").String())
			default:
				b.WriteString(au.Gray(12, ".").String())
			}
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}
