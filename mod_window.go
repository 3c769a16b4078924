package lumen

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowModule opens a GLFW window with a WebGPU surface and installs the
// resulting WGPUBackend as the App's GPU backend. Each frame the swapchain
// image is exposed as FrameTargets.Output between PreRender and PostRender.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

// Window holds the GLFW window and the WebGPU objects behind it.
type Window struct {
	Glfw     *glfw.Window
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Config   *wgpu.SurfaceConfiguration
	Backend  *gpu.WGPUBackend

	texture *wgpu.Texture
	view    *wgpu.TextureView
	log     Logger

	scroll       float64
	scrollHooked bool
}

func (mod WindowModule) Install(app *App, cmd *Commands) {
	width, height, title := mod.Width, mod.Height, mod.Title
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "lumen"
	}

	win, err := OpenWindow(width, height, title, app.Logger())
	if err != nil {
		panic(err)
	}
	ensureSingleBackend(app, "wgpu", win.Backend)

	if Resource[FrameTargets](app) == nil {
		cmd.AddResources(&FrameTargets{})
	}
	cmd.AddResources(win)

	app.UseSystem(System(windowEventsSystem).InStage(Prelude))
	app.UseLifecycle(win, PreRender)
	app.UseSystem(System(presentSystem).InStage(PostRender))
}

// OpenWindow creates the window, the device and the post-processing backend.
func OpenWindow(width, height int, title string, log Logger) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	gw, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	w := &Window{Glfw: gw, log: log}
	w.Instance = wgpu.CreateInstance(nil)
	w.Surface = w.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(gw))

	w.Adapter, err = w.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: w.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		w.destroy()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.Device, err = w.Adapter.RequestDevice(nil)
	if err != nil {
		w.destroy()
		return nil, fmt.Errorf("request device: %w", err)
	}

	fbw, fbh := gw.GetFramebufferSize()
	caps := w.Surface.GetCapabilities(w.Adapter)
	w.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(fbw),
		Height:      uint32(fbh),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	w.Surface.Configure(w.Adapter, w.Device, w.Config)

	w.Backend, err = gpu.NewWGPUBackend(w.Device, log)
	if err != nil {
		w.destroy()
		return nil, err
	}
	return w, nil
}

// Size is the framebuffer size in pixels.
func (w *Window) Size() (int, int) { return int(w.Config.Width), int(w.Config.Height) }

// resize reconfigures the surface when the framebuffer changed. A minimized
// window reports false and renders nothing.
func (w *Window) resize() bool {
	fbw, fbh := w.Glfw.GetFramebufferSize()
	if fbw <= 0 || fbh <= 0 {
		return false
	}
	if uint32(fbw) != w.Config.Width || uint32(fbh) != w.Config.Height {
		w.log.Debugf("window: resize %dx%d", fbw, fbh)
		w.Config.Width, w.Config.Height = uint32(fbw), uint32(fbh)
		w.Surface.Configure(w.Adapter, w.Device, w.Config)
	}
	return true
}

func (w *Window) OnCreate(cmd *Commands) {
	w.log = cmd.Logger()
}

// OnUpdate acquires the swapchain image for this frame.
func (w *Window) OnUpdate(cmd *Commands, dt float32) {
	targets := Resource[FrameTargets](cmd.app)
	w.releaseFrame(targets)
	if !w.resize() {
		return
	}
	tex, err := w.Surface.GetCurrentTexture()
	if err != nil {
		w.log.Warnf("window: skipping frame: %v", err)
		return
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		w.log.Warnf("window: skipping frame: %v", err)
		return
	}
	w.texture, w.view = tex, view
	targets.Output = gpu.WrapView("swapchain", view, int(w.Config.Width), int(w.Config.Height), w.Config.Format)
}

func (w *Window) releaseFrame(targets *FrameTargets) {
	if targets != nil {
		targets.Output = nil
	}
	if w.view != nil {
		w.view.Release()
		w.view = nil
	}
	if w.texture != nil {
		w.texture.Release()
		w.texture = nil
	}
}

func (w *Window) OnDestroy(cmd *Commands) {
	w.releaseFrame(Resource[FrameTargets](cmd.app))
	w.destroy()
}

func (w *Window) destroy() {
	if w.Backend != nil {
		w.Backend.Release()
		w.Backend = nil
	}
	if w.Device != nil {
		w.Device.Release()
		w.Device = nil
	}
	if w.Adapter != nil {
		w.Adapter.Release()
		w.Adapter = nil
	}
	if w.Surface != nil {
		w.Surface.Release()
		w.Surface = nil
	}
	if w.Instance != nil {
		w.Instance.Release()
		w.Instance = nil
	}
	if w.Glfw != nil {
		w.Glfw.Destroy()
		w.Glfw = nil
		glfw.Terminate()
	}
}

func windowEventsSystem(cmd *Commands, w *Window) {
	glfw.PollEvents()
	if w.Glfw.ShouldClose() {
		cmd.Exit()
	}
}

func presentSystem(w *Window, targets *FrameTargets) {
	if w.texture == nil {
		return
	}
	w.Surface.Present()
	w.releaseFrame(targets)
}
