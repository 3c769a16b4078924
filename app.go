package lumen

import (
	"fmt"
	"reflect"
	"runtime"
	"time"
)

type systemFn any

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

// Lifecycle is a stateful system driven by the App.
type Lifecycle interface {
	OnCreate(cmd *Commands)
	OnUpdate(cmd *Commands, dt float32)
	OnDestroy(cmd *Commands)
}

type scheduled struct {
	fn  systemFn
	obj Lifecycle
}

type App struct {
	stages     []Stage
	systems    map[string][]scheduled
	resources  map[reflect.Type]any
	ecs        *Ecs
	lifecycles []Lifecycle
	created    map[Lifecycle]bool

	frameDt  time.Duration
	frame    uint64
	exit     bool
	shutdown bool

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompAdd
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Frame is the number of completed Update calls.
func (app *App) Frame() uint64 { return app.frame }

// Update runs every stage once, as one frame that lasted dt.
func (app *App) Update(dt time.Duration) {
	if app.shutdown {
		return
	}
	app.frameDt = max(dt, 0)
	cmd := app.Commands()
	secs := float32(app.frameDt.Seconds())

	for _, stage := range app.stages {
		for _, s := range app.systems[stage.Name] {
			if s.obj != nil {
				if !app.created[s.obj] {
					app.created[s.obj] = true
					s.obj.OnCreate(cmd)
				}
				s.obj.OnUpdate(cmd, secs)
				continue
			}
			app.callSystem(s.fn)
		}
		app.FlushCommands()
	}
	app.frame++
}

// Run updates with wall-clock frame times until a system calls Commands.Exit,
// then shuts the App down.
func (app *App) Run() {
	last := time.Now()
	for !app.exit {
		now := time.Now()
		app.Update(now.Sub(last))
		last = now
	}
	app.Shutdown()
}

// Shutdown destroys the lifecycle systems that were created, newest first.
// The App cannot be updated afterwards.
func (app *App) Shutdown() {
	if app.shutdown {
		return
	}
	app.shutdown = true
	cmd := app.Commands()
	for i := len(app.lifecycles) - 1; i >= 0; i-- {
		if l := app.lifecycles[i]; app.created[l] {
			l.OnDestroy(cmd)
		}
	}
	app.FlushCommands()
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T, or nil.
func Resource[T any](app *App) *T {
	if app == nil {
		return nil
	}
	if r, ok := app.resources[reflect.TypeFor[T]()]; ok {
		return r.(*T)
	}
	return nil
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// Removals first so nothing is added to a dead entity.
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rm := range app.pendingCompRemovals {
		app.ecs.removeComponents(rm.eid, rm.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
