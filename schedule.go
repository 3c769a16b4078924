package lumen

import (
	"fmt"
	"slices"
)

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}
}

// Lighting stages run between PreRender and Render in this order, whichever
// module installs them first: caster geometry is current before any
// occlusion query, and the light list is culled before probes sample it.
var (
	ShadowStage   = Stage{Name: "Shadows"}
	LightingStage = Stage{Name: "Lighting"}
	ProbeStage    = Stage{Name: "Probes"}
)

func (app *App) useLightingStages() {
	after := PreRender
	for _, s := range []Stage{ShadowStage, LightingStage, ProbeStage} {
		if app.stageIndex(s.Name) == -1 {
			app.UseStage(s, AfterStage(after))
		}
		after = s
	}
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

// System wraps a function system. Its arguments are resolved from the App
// resources (pointer types) and *Commands on every call.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: system, inStage: Update}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageAfter, target: s}
}

func (app *App) stageIndex(name string) int {
	return slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == name })
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	idx := app.stageIndex(where.target.Name)
	if idx == -1 {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}
	if app.stageIndex(stage.Name) != -1 {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}
	if where.position == stageAfter {
		idx++
	}
	app.stages = slices.Insert(app.stages, idx, stage)
	return app
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if app.stageIndex(system.inStage.Name) == -1 {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}
	app.systems[system.inStage.Name] = append(app.systems[system.inStage.Name], scheduled{fn: system.system})
	return app
}

// UseLifecycle schedules a stateful system. OnCreate runs before its first
// update, OnUpdate once per frame in stage, OnDestroy on Shutdown in reverse
// registration order.
func (app *App) UseLifecycle(system Lifecycle, stage Stage) *App {
	if app.stageIndex(stage.Name) == -1 {
		panic(fmt.Sprintf("Stage %v doesn't exist", stage.Name))
	}
	app.systems[stage.Name] = append(app.systems[stage.Name], scheduled{obj: system})
	app.lifecycles = append(app.lifecycles, system)
	return app
}
