package gpu

import (
	"fmt"
	"slices"
)

// Recorder is a headless Backend that records every call. Tests use it to
// check stage order and resource lifetimes without a device.
type Recorder struct {
	// FailTargets makes CreateTarget return nil for labels it contains.
	// The key "*" fails every target.
	FailTargets map[string]bool
	FailBuffers bool

	Calls  []string
	Passes []RecordedPass

	TargetsCreated  int
	TargetsReleased int
	BuffersCreated  int
	BuffersReleased int
	Submits         int

	live map[*recTarget]struct{}
}

// RecordedPass is one drawn effect.
type RecordedPass struct {
	Effect   Effect
	Dst      string
	Width    int
	Height   int
	Inputs   []string
	Uniforms []float32
	Drawn    bool
}

func NewRecorder() *Recorder {
	return &Recorder{FailTargets: map[string]bool{}, live: map[*recTarget]struct{}{}}
}

type recTarget struct {
	r        *Recorder
	label    string
	w, h     int
	format   Format
	pixels   []byte
	released bool
}

func (t *recTarget) Width() int     { return t.w }
func (t *recTarget) Height() int    { return t.h }
func (t *recTarget) Format() Format { return t.format }
func (t *recTarget) Label() string  { return t.label }

func (t *recTarget) Release() {
	if t.released {
		return
	}
	t.released = true
	t.r.TargetsReleased++
	delete(t.r.live, t)
	t.r.Calls = append(t.r.Calls, "release "+t.label)
}

type recBuffer struct {
	r        *Recorder
	data     []byte
	released bool
}

func (b *recBuffer) Size() int { return len(b.data) }

func (b *recBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.r.BuffersReleased++
}

type recPass struct {
	r   *Recorder
	idx int
}

func (p *recPass) SetInput(slot int, t Target) {
	rp := &p.r.Passes[p.idx]
	for len(rp.Inputs) <= slot {
		rp.Inputs = append(rp.Inputs, "")
	}
	if t != nil {
		rp.Inputs[slot] = t.Label()
	}
}

func (p *recPass) SetUniforms(b Buffer) {
	if rb, ok := b.(*recBuffer); ok && rb != nil {
		p.r.Passes[p.idx].Uniforms = BytesToFloat32s(rb.data)
	}
}

func (p *recPass) Draw() { p.r.Passes[p.idx].Drawn = true }

func (p *recPass) End() {}

func (r *Recorder) CreateTarget(label string, width, height int, format Format) Target {
	r.Calls = append(r.Calls, fmt.Sprintf("create %s %dx%d", label, width, height))
	if r.FailTargets["*"] || r.FailTargets[label] || width <= 0 || height <= 0 {
		return nil
	}
	t := &recTarget{r: r, label: label, w: width, h: height, format: format}
	r.TargetsCreated++
	r.live[t] = struct{}{}
	return t
}

func (r *Recorder) CreateBuffer(label string, size int) Buffer {
	if r.FailBuffers || size <= 0 {
		return nil
	}
	r.BuffersCreated++
	return &recBuffer{r: r, data: make([]byte, size)}
}

func (r *Recorder) WriteBuffer(b Buffer, data []byte) {
	rb, ok := b.(*recBuffer)
	if !ok || rb == nil {
		return
	}
	if len(data) > len(rb.data) {
		rb.data = make([]byte, len(data))
	}
	copy(rb.data, data)
}

func (r *Recorder) WriteTarget(t Target, pixels []byte) {
	if rt, ok := t.(*recTarget); ok && rt != nil {
		rt.pixels = slices.Clone(pixels)
		r.Calls = append(r.Calls, "upload "+rt.label)
	}
}

func (r *Recorder) BeginPass(effect Effect, dst Target, clear ClearPolicy) Pass {
	if dst == nil {
		return nil
	}
	r.Calls = append(r.Calls, fmt.Sprintf("pass %s -> %s", effect, dst.Label()))
	r.Passes = append(r.Passes, RecordedPass{Effect: effect, Dst: dst.Label(), Width: dst.Width(), Height: dst.Height()})
	return &recPass{r: r, idx: len(r.Passes) - 1}
}

func (r *Recorder) Submit() {
	r.Submits++
	r.Calls = append(r.Calls, "submit")
}

// LiveTargets is the number of created targets not yet released.
func (r *Recorder) LiveTargets() int { return len(r.live) }

// Effects lists the drawn effects in order.
func (r *Recorder) Effects() []Effect {
	out := make([]Effect, 0, len(r.Passes))
	for _, p := range r.Passes {
		if p.Drawn {
			out = append(out, p.Effect)
		}
	}
	return out
}

// Reset clears the call log but keeps counters and live targets.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
	r.Passes = r.Passes[:0]
}

// Pixels returns the last upload to a recorder target.
func Pixels(t Target) []byte {
	if rt, ok := t.(*recTarget); ok {
		return rt.pixels
	}
	return nil
}
