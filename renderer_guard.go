package lumen

import (
	"fmt"

	"github.com/gekko3d/lumen/light2d/gpu"
)

// GPUContext is the device shared by every GPU-using module. Only one
// backend may be installed into an App.
type GPUContext struct {
	Name    string
	Backend gpu.Backend
}

// GPUModule installs an existing backend, such as a gpu.Recorder or a
// headless WGPUBackend. WindowModule installs its own.
type GPUModule struct {
	Name    string
	Backend gpu.Backend
}

func (m GPUModule) Install(app *App, cmd *Commands) {
	name := m.Name
	if name == "" {
		name = "custom"
	}
	ensureSingleBackend(app, name, m.Backend)
}

// ensureSingleBackend installs backend under name. Installing the same name
// twice is a no-op; a different name panics.
func ensureSingleBackend(app *App, name string, backend gpu.Backend) *GPUContext {
	if app == nil {
		panic("ensureSingleBackend: app is nil")
	}
	if ctx := Resource[GPUContext](app); ctx != nil {
		if ctx.Name != name {
			app.Logger().Errorf("Multiple gpu backends installed: %s and %s", ctx.Name, name)
			panic(fmt.Sprintf("Multiple gpu backends installed: %s and %s", ctx.Name, name))
		}
		return ctx
	}
	ctx := &GPUContext{Name: name, Backend: backend}
	app.addResources(ctx)
	return ctx
}

// installedBackend is the App's backend, nil when none is installed.
func installedBackend(app *App) gpu.Backend {
	if ctx := Resource[GPUContext](app); ctx != nil {
		return ctx.Backend
	}
	return nil
}
