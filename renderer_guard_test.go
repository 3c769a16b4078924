package lumen

import (
	"bytes"
	"testing"

	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUModule_SingleBackend(t *testing.T) {
	rec := gpu.NewRecorder()
	app := NewApp()
	assert.Nil(t, installedBackend(app))

	app.UseModules(GPUModule{Name: "recorder", Backend: rec})
	ctx := Resource[GPUContext](app)
	require.NotNil(t, ctx)
	assert.Equal(t, "recorder", ctx.Name)
	assert.Same(t, rec, installedBackend(app))

	// same name again keeps the first backend
	app.UseModules(GPUModule{Name: "recorder", Backend: gpu.NewRecorder()})
	assert.Same(t, rec, installedBackend(app))
}

func TestGPUModule_DefaultName(t *testing.T) {
	app := NewApp().UseModules(GPUModule{Backend: gpu.NewRecorder()})
	assert.Equal(t, "custom", Resource[GPUContext](app).Name)
}

func TestGPUModule_ConflictingBackendsPanic(t *testing.T) {
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Commands().AddResources(NewWriterLogger("test", false, &out, &errOut))
	app.UseModules(GPUModule{Name: "recorder", Backend: gpu.NewRecorder()})

	assert.PanicsWithValue(t, "Multiple gpu backends installed: recorder and wgpu", func() {
		ensureSingleBackend(app, "wgpu", nil)
	})
	assert.Contains(t, errOut.String(), "Multiple gpu backends installed")

	assert.PanicsWithValue(t, "ensureSingleBackend: app is nil", func() {
		ensureSingleBackend(nil, "wgpu", nil)
	})
}
