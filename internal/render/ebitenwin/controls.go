package ebitenwin

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Grid world action ids, in the order of the Discrete(4) action space.
const (
	ActionRight = iota
	ActionDown
	ActionLeft
	ActionUp
)

var keyBindings = map[ebiten.Key]int{
	ebiten.KeyArrowRight: ActionRight,
	ebiten.KeyD:          ActionRight,
	ebiten.KeyArrowDown:  ActionDown,
	ebiten.KeyS:          ActionDown,
	ebiten.KeyArrowLeft:  ActionLeft,
	ebiten.KeyA:          ActionLeft,
	ebiten.KeyArrowUp:    ActionUp,
	ebiten.KeyW:          ActionUp,
}

// Controls turns key presses into actions for a human player.
type Controls struct {
	actions chan int
}

func NewControls() *Controls {
	return &Controls{actions: make(chan int, 1)}
}

// Update polls the keyboard. It runs on the ebiten goroutine.
func (c *Controls) Update() {
	for key, action := range keyBindings {
		if !inpututil.IsKeyJustPressed(key) {
			continue
		}
		// Drop the press if the agent has not consumed the previous one
		select {
		case c.actions <- action:
		default:
		}
		return
	}
}

func (c *Controls) Actions() <-chan int {
	return c.actions
}
