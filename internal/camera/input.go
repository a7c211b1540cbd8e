package camera

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Input is the keyboard and mouse state seen by one frame.
type Input struct {
	mu sync.Mutex

	keys    map[gpucontext.Key]bool
	buttons [3]bool

	x, y           float64
	prevX, prevY   float64
	deltaX, deltaY float64
	wheel          float64
}

// NewInput returns an empty input state.
func NewInput() *Input {
	return &Input{keys: make(map[gpucontext.Key]bool)}
}

// Attach registers callbacks on src that update in.
func (in *Input) Attach(src gpucontext.EventSource) {
	src.OnKeyPress(func(k gpucontext.Key, _ gpucontext.Modifiers) { in.SetKey(k, true) })
	src.OnKeyRelease(func(k gpucontext.Key, _ gpucontext.Modifiers) { in.SetKey(k, false) })
	src.OnMousePress(func(b gpucontext.MouseButton, _, _ float64) { in.SetButton(b, true) })
	src.OnMouseRelease(func(b gpucontext.MouseButton, _, _ float64) { in.SetButton(b, false) })
	src.OnMouseMove(in.MoveTo)
	src.OnScroll(func(_, dy float64) { in.Scroll(dy) })
}

// SetKey records a key transition.
func (in *Input) SetKey(k gpucontext.Key, down bool) {
	in.mu.Lock()
	in.keys[k] = down
	in.mu.Unlock()
}

// SetButton records a mouse button transition. Buttons past the middle
// button are ignored.
func (in *Input) SetButton(b gpucontext.MouseButton, down bool) {
	if int(b) >= len(in.buttons) {
		return
	}
	in.mu.Lock()
	in.buttons[b] = down
	in.mu.Unlock()
}

// MoveTo records the cursor position.
func (in *Input) MoveTo(x, y float64) {
	in.mu.Lock()
	in.x, in.y = x, y
	in.mu.Unlock()
}

// Scroll records the latest vertical wheel movement.
func (in *Input) Scroll(dy float64) {
	in.mu.Lock()
	in.wheel = dy
	in.mu.Unlock()
}

// Down reports whether k is held.
func (in *Input) Down(k gpucontext.Key) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.keys[k]
}

// Button reports whether b is held.
func (in *Input) Button(b gpucontext.MouseButton) bool {
	if int(b) >= len(in.buttons) {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.buttons[b]
}

// Delta returns the cursor movement latched by the last EndFrame.
func (in *Input) Delta() (dx, dy float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.deltaX, in.deltaY
}

// Wheel returns the wheel movement since the last EndFrame.
func (in *Input) Wheel() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.wheel
}

// EndFrame latches the cursor delta since the previous call and clears
// the wheel.
func (in *Input) EndFrame() {
	in.mu.Lock()
	in.deltaX = in.x - in.prevX
	in.deltaY = in.y - in.prevY
	in.prevX, in.prevY = in.x, in.y
	in.wheel = 0
	in.mu.Unlock()
}
