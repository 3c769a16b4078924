package lumen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockModule struct {
	installed bool
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

type counterResource struct{ n int }

// resourceModule adds a resource and checks it is visible to later modules.
type resourceModule struct{ seen *bool }

func (m resourceModule) Install(app *App, cmd *Commands) {
	if m.seen != nil {
		*m.seen = Resource[counterResource](app) != nil
		return
	}
	cmd.AddResources(&counterResource{n: 1})
	cmd.AddEntity(&counterResource{n: 2})
}

func TestNewApp_Defaults(t *testing.T) {
	app := NewApp()

	names := make([]string, 0, len(app.stages))
	for _, s := range app.stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "PostUpdate", "PreRender", "Render", "PostRender", "Finale"}, names)
	assert.NotNil(t, app.ecs)
	assert.Empty(t, app.resources)
	assert.Equal(t, uint64(0), app.Frame())
}

func TestLightingStages_FixedOrder(t *testing.T) {
	app := NewApp().UseModules(LightProbeModule{}, LightingModule{}, ShadowModule{})

	names := make([]string, 0, len(app.stages))
	for _, s := range app.stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "PostUpdate", "PreRender", "Shadows", "Lighting", "Probes", "Render", "PostRender", "Finale"}, names)

	assert.NotPanics(t, func() { app.useLightingStages() })
	assert.Len(t, app.stages, len(names))
}

func TestApp_UseModulesInOrder(t *testing.T) {
	var order []string
	a := &MockModule{order: &order, name: "a"}
	b := &MockModule{order: &order, name: "b"}

	NewApp().UseModules(a, b)

	assert.True(t, a.installed)
	assert.True(t, b.installed)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestApp_UseModulesSharesResourcesAndFlushes(t *testing.T) {
	seen := false
	app := NewApp().UseModules(resourceModule{}, resourceModule{seen: &seen})

	assert.True(t, seen)
	require.NotNil(t, Resource[counterResource](app))
	assert.Equal(t, 1, MakeQuery1[counterResource](app.Commands()).Count())
}

func TestApp_UseStage(t *testing.T) {
	app := NewApp()
	custom := Stage{Name: "Custom"}
	app.UseStage(custom, AfterStage(Update))

	assert.Equal(t, app.stageIndex("Update")+1, app.stageIndex("Custom"))
	assert.PanicsWithValue(t, "Stage Custom already exists", func() {
		app.UseStage(custom, BeforeStage(Render))
	})
	assert.PanicsWithValue(t, "Stage Missing not found", func() {
		app.UseStage(Stage{Name: "Other"}, BeforeStage(Stage{Name: "Missing"}))
	})
	assert.PanicsWithValue(t, "Stage Nowhere doesn't exist", func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "Nowhere"}))
	})
}
