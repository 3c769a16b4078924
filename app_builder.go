package lumen

import (
	"reflect"
)

// NewApp returns an App with the default stages and an empty world.
func NewApp() *App {
	return &App{
		stages:    defaultStages(),
		systems:   make(map[string][]scheduled),
		resources: make(map[reflect.Type]any),
		ecs:       MakeEcs(),
		created:   make(map[Lifecycle]bool),
	}
}

// UseModules installs modules in order. Resources added by a module are
// visible to the modules installed after it.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	app.FlushCommands()
	return app
}
