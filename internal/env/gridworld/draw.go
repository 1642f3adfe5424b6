package gridworld

import (
	"fmt"
	"image"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/common"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/render"
)

// drawFrame paints the grid: target square, agent disc, grid lines and a
// step counter.
func (g *GridWorld) drawFrame() *image.RGBA {
	canvas := render.NewCanvas(g.windowSize, g.windowSize, common.BackgroundColor)
	cell := float64(g.windowSize) / float64(g.size)

	// Target
	tx, ty := float64(g.target.X)*cell, float64(g.target.Y)*cell
	targetRect := image.Rect(int(tx), int(ty), int(tx+cell), int(ty+cell))
	render.FillRect(canvas, targetRect, common.TargetColor)
	inset := int(cell / 3)
	render.FillRect(canvas, targetRect.Inset(inset), render.ShiftColor(common.TargetColor, common.TargetHueShift))

	// Agent
	ax := float32((float64(g.agent.X) + 0.5) * cell)
	ay := float32((float64(g.agent.Y) + 0.5) * cell)
	render.FillCircle(canvas, ax, ay, float32(cell/3), common.AgentColor)

	render.DrawGridLines(canvas, g.size, cell, common.GridLineColor, 2)
	if cell >= 32 {
		render.DrawLabel(canvas, fmt.Sprintf("step %d", g.steps), 4, 14, common.LabelColor)
	}
	return canvas
}
