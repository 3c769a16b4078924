package lumen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lightIntensity(cmd *Commands, eid EntityId) float32 {
	for _, c := range cmd.GetAllComponents(eid) {
		if l, ok := c.(LightComponent); ok {
			return l.Intensity
		}
	}
	return -1
}

func TestLifetime_FadesAndRemoves(t *testing.T) {
	app := NewApp().UseModules(TimeModule{}, LifetimeModule{})
	cmd := app.Commands()

	flash := pointLight(10, 0)
	flash.Intensity = 2
	lit := cmd.AddEntity(&TransformComponent{}, flash, &LifetimeComponent{TimeLeft: 1, Duration: 1, FadeLight: true})
	plain := cmd.AddEntity(&TransformComponent{}, &LifetimeComponent{TimeLeft: 0.5})
	steady := cmd.AddEntity(&TransformComponent{}, pointLight(10, 0), &LifetimeComponent{TimeLeft: 10})
	app.FlushCommands()

	app.Update(250 * time.Millisecond)
	assert.InDelta(t, 1.5, lightIntensity(cmd, lit), 1e-5)
	assert.Equal(t, float32(1), lightIntensity(cmd, steady), "lights only fade on request")

	app.Update(250 * time.Millisecond)
	assert.InDelta(t, 1, lightIntensity(cmd, lit), 1e-5)
	assert.False(t, cmd.HasEntity(plain))

	app.Update(500 * time.Millisecond)
	assert.False(t, cmd.HasEntity(lit))
	assert.True(t, cmd.HasEntity(steady))
}

func TestLifetime_ZeroDt(t *testing.T) {
	app := NewApp().UseModules(TimeModule{}, LifetimeModule{})
	eid := app.Commands().AddEntity(&LifetimeComponent{})
	app.FlushCommands()

	app.Update(0)
	assert.True(t, app.Commands().HasEntity(eid))
}
