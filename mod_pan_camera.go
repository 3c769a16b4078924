package lumen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PanCameraModule drives entities carrying a PanCameraComponent from Input:
// WASD or the arrow keys pan, the scroll wheel and -/= zoom.
type PanCameraModule struct{}

func (m PanCameraModule) Install(app *App, cmd *Commands) {
	app.UseSystem(System(PanCameraInputSystem).InStage(Update))
	app.UseSystem(System(PanCameraControlSystem).InStage(Update))
}

type PanCameraComponent struct {
	Speed     float32 // world units per second at zoom 1
	ZoomSpeed float32 // zoom doublings per second of input
	MinZoom   float32
	MaxZoom   float32

	Move mgl32.Vec2
	Zoom float32
}

func PanCameraInputSystem(input *Input, cmd *Commands) {
	MakeQuery1[PanCameraComponent](cmd).Map(func(eid EntityId, pan *PanCameraComponent) bool {
		pan.Move = mgl32.Vec2{
			input.Axis(KeyA, KeyD) + input.Axis(KeyLeft, KeyRight),
			input.Axis(KeyS, KeyW) + input.Axis(KeyDown, KeyUp),
		}
		pan.Zoom = float32(input.ScrollY) + input.Axis(KeyMinus, KeyEqual)
		return true
	})
}

func PanCameraControlSystem(cmd *Commands, time *Time) {
	dt := time.Seconds()
	if dt <= 0 {
		return
	}

	MakeQuery3[TransformComponent, CameraComponent, PanCameraComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, cam *CameraComponent, pan *PanCameraComponent) bool {
			if pan.Speed == 0 {
				pan.Speed = 30
			}
			if pan.ZoomSpeed == 0 {
				pan.ZoomSpeed = 1
			}
			if pan.MinZoom <= 0 {
				pan.MinZoom = 0.25
			}
			if pan.MaxZoom < pan.MinZoom {
				pan.MaxZoom = max(4, pan.MinZoom)
			}
			if cam.Zoom <= 0 {
				cam.Zoom = 1
			}

			if pan.Zoom != 0 {
				scale := float32(math.Exp2(float64(pan.Zoom * pan.ZoomSpeed * dt)))
				cam.Zoom = mgl32.Clamp(cam.Zoom*scale, pan.MinZoom, pan.MaxZoom)
			}
			// zoomed out views pan faster so the speed stays constant on screen
			if pan.Move.Len() > 0 {
				tr.Position = tr.Position.Add(pan.Move.Normalize().Mul(pan.Speed * dt / cam.Zoom))
			}
			return true
		})
}
