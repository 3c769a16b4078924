package lumen

import (
	"time"
)

// Time is advanced by the frame duration passed to App.Update, so tests can
// drive it deterministically.
type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// Seconds is Dt in seconds.
func (t *Time) Seconds() float32 { return float32(t.Dt.Seconds()) }

type TimeModule struct {
	// Start is the initial clock value; zero means time.Now().
	Start time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	start := mod.Start
	if start.IsZero() {
		start = time.Now()
	}
	cmd.AddResources(&Time{Time: start})
	app.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(timeResource *Time, cmd *Commands) {
	timeResource.Dt = cmd.Dt()
	timeResource.Time = timeResource.Time.Add(timeResource.Dt)
	timeResource.Elapsed += timeResource.Dt
	timeResource.Frame++
}
