package lumen

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyA int = iota
	KeyB
	KeyC
	KeyD
	KeyF
	KeyG
	KeyP
	KeyS
	KeyW
	Key1
	Key2
	Key3
	Key4
	Key5
	KeySpace
	KeyEscape
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyMinus
	KeyEqual
	KeyShift
	MouseButtonLeft
	MouseButtonRight

	keyCount
)

type InputModule struct{}

// Input is the keyboard and mouse state of the current frame.
type Input struct {
	Pressed [keyCount]bool

	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	ScrollY                  float64
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(System(inputSystem).InStage(PreUpdate))
}

// SetKey records the state of key for this frame and derives the edge flags.
func (input *Input) SetKey(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// SetMouse moves the cursor; the delta is relative to the previous frame.
func (input *Input) SetMouse(x, y float64) {
	input.MouseDeltaX = x - input.MouseX
	input.MouseDeltaY = y - input.MouseY
	input.MouseX, input.MouseY = x, y
}

// Axis is +1 when positive alone is held, -1 for negative alone, else 0.
func (input *Input) Axis(negative, positive int) float32 {
	var v float32
	if input.Pressed[positive] {
		v++
	}
	if input.Pressed[negative] {
		v--
	}
	return v
}

// inputSystem runs after windowEventsSystem polled GLFW in Prelude.
func inputSystem(w *Window, input *Input) {
	if w.Glfw == nil {
		return
	}
	if !w.scrollHooked {
		w.Glfw.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
			w.scroll += yoff
		})
		w.scrollHooked = true
	}
	input.ScrollY, w.scroll = w.scroll, 0

	for key, glfwKey := range keyToGlfw {
		input.SetKey(key, w.Glfw.GetKey(glfwKey) == glfw.Press)
	}
	input.SetKey(MouseButtonLeft, w.Glfw.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press)
	input.SetKey(MouseButtonRight, w.Glfw.GetMouseButton(glfw.MouseButtonRight) == glfw.Press)
	input.SetMouse(w.Glfw.GetCursorPos())
}

var keyToGlfw = map[int]glfw.Key{
	KeyA:      glfw.KeyA,
	KeyB:      glfw.KeyB,
	KeyC:      glfw.KeyC,
	KeyD:      glfw.KeyD,
	KeyF:      glfw.KeyF,
	KeyG:      glfw.KeyG,
	KeyP:      glfw.KeyP,
	KeyS:      glfw.KeyS,
	KeyW:      glfw.KeyW,
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	Key4:      glfw.Key4,
	Key5:      glfw.Key5,
	KeySpace:  glfw.KeySpace,
	KeyEscape: glfw.KeyEscape,
	KeyRight:  glfw.KeyRight,
	KeyLeft:   glfw.KeyLeft,
	KeyDown:   glfw.KeyDown,
	KeyUp:     glfw.KeyUp,
	KeyMinus:  glfw.KeyMinus,
	KeyEqual:  glfw.KeyEqual,
	KeyShift:  glfw.KeyLeftShift,
}
