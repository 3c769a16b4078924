package lumen

import "github.com/go-gl/mathgl/mgl32"

// LifetimeComponent removes its entity once TimeLeft runs out. With
// FadeLight set, an attached LightComponent dims linearly to zero over
// Duration, which suits flashes and sparks.
type LifetimeComponent struct {
	TimeLeft  float32
	Duration  float32
	FadeLight bool

	baseIntensity float32
}

type LifetimeModule struct{}

func (mod LifetimeModule) Install(app *App, cmd *Commands) {
	app.UseSystem(System(lifetimeSystem).InStage(PostUpdate))
}

func lifetimeSystem(time *Time, cmd *Commands) {
	dt := time.Seconds()
	if dt <= 0 {
		return
	}
	MakeQuery2[LifetimeComponent, LightComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent, light *LightComponent) bool {
		lt.TimeLeft -= dt
		if lt.TimeLeft <= 0 {
			cmd.Logger().Debugf("lifetime: removing entity %v", eid)
			cmd.RemoveEntity(eid)
			return true
		}
		if lt.FadeLight && light != nil && lt.Duration > 0 {
			if lt.baseIntensity == 0 {
				lt.baseIntensity = light.Intensity
			}
			light.Intensity = lt.baseIntensity * mgl32.Clamp(lt.TimeLeft/lt.Duration, 0, 1)
		}
		return true
	}, LightComponent{})
}
