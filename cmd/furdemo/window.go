package main

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gpucontext"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// window is a GLFW window without a client API. It forwards GLFW input
// callbacks to gpucontext handlers.
type window struct {
	gpucontext.NullEventSource

	win *glfw.Window

	keyPress     []func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease   []func(gpucontext.Key, gpucontext.Modifiers)
	mousePress   []func(gpucontext.MouseButton, float64, float64)
	mouseRelease []func(gpucontext.MouseButton, float64, float64)
	mouseMove    []func(float64, float64)
	scroll       []func(float64, float64)
	resize       []func(int, int)
}

var _ gpucontext.EventSource = (*window)(nil)

func newWindow(title string, width, height int) (*window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}

	w := &window{win: win}
	win.SetKeyCallback(w.keyCallback)
	win.SetMouseButtonCallback(w.mouseButtonCallback)
	win.SetCursorPosCallback(w.cursorPosCallback)
	win.SetScrollCallback(w.scrollCallback)
	win.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	return w, nil
}

func (w *window) destroy() {
	w.win.Destroy()
	glfw.Terminate()
}

func (w *window) shouldClose() bool { return w.win.ShouldClose() }

// framebufferSize returns the drawable size in pixels.
func (w *window) framebufferSize() (uint32, uint32) {
	fw, fh := w.win.GetFramebufferSize()
	return uint32(max(fw, 0)), uint32(max(fh, 0))
}

func (w *window) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.keyPress = append(w.keyPress, fn)
}

func (w *window) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.keyRelease = append(w.keyRelease, fn)
}

func (w *window) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	w.mousePress = append(w.mousePress, fn)
}

func (w *window) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	w.mouseRelease = append(w.mouseRelease, fn)
}

func (w *window) OnMouseMove(fn func(float64, float64)) {
	w.mouseMove = append(w.mouseMove, fn)
}

func (w *window) OnScroll(fn func(float64, float64)) {
	w.scroll = append(w.scroll, fn)
}

func (w *window) OnResize(fn func(int, int)) {
	w.resize = append(w.resize, fn)
}

func (w *window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.win.SetShouldClose(true)
		return
	}
	k, ok := keyMap[key]
	if !ok {
		return
	}
	m := modifiers(mods)
	switch action {
	case glfw.Press:
		for _, fn := range w.keyPress {
			fn(k, m)
		}
	case glfw.Release:
		for _, fn := range w.keyRelease {
			fn(k, m)
		}
	}
}

func (w *window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	var b gpucontext.MouseButton
	switch button {
	case glfw.MouseButtonLeft:
		b = gpucontext.MouseButtonLeft
	case glfw.MouseButtonRight:
		b = gpucontext.MouseButtonRight
	case glfw.MouseButtonMiddle:
		b = gpucontext.MouseButtonMiddle
	default:
		return
	}
	x, y := w.win.GetCursorPos()
	handlers := w.mousePress
	if action == glfw.Release {
		handlers = w.mouseRelease
	}
	for _, fn := range handlers {
		fn(b, x, y)
	}
}

func (w *window) cursorPosCallback(_ *glfw.Window, x, y float64) {
	for _, fn := range w.mouseMove {
		fn(x, y)
	}
}

func (w *window) scrollCallback(_ *glfw.Window, dx, dy float64) {
	for _, fn := range w.scroll {
		fn(dx, dy)
	}
}

func (w *window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	for _, fn := range w.resize {
		fn(width, height)
	}
}

// keyMap covers the keys the fly camera reads plus the rest of the
// letters, digits and arrows.
var keyMap = map[glfw.Key]gpucontext.Key{
	glfw.KeyA: gpucontext.KeyA, glfw.KeyB: gpucontext.KeyB, glfw.KeyC: gpucontext.KeyC,
	glfw.KeyD: gpucontext.KeyD, glfw.KeyE: gpucontext.KeyE, glfw.KeyF: gpucontext.KeyF,
	glfw.KeyG: gpucontext.KeyG, glfw.KeyH: gpucontext.KeyH, glfw.KeyI: gpucontext.KeyI,
	glfw.KeyJ: gpucontext.KeyJ, glfw.KeyK: gpucontext.KeyK, glfw.KeyL: gpucontext.KeyL,
	glfw.KeyM: gpucontext.KeyM, glfw.KeyN: gpucontext.KeyN, glfw.KeyO: gpucontext.KeyO,
	glfw.KeyP: gpucontext.KeyP, glfw.KeyQ: gpucontext.KeyQ, glfw.KeyR: gpucontext.KeyR,
	glfw.KeyS: gpucontext.KeyS, glfw.KeyT: gpucontext.KeyT, glfw.KeyU: gpucontext.KeyU,
	glfw.KeyV: gpucontext.KeyV, glfw.KeyW: gpucontext.KeyW, glfw.KeyX: gpucontext.KeyX,
	glfw.KeyY: gpucontext.KeyY, glfw.KeyZ: gpucontext.KeyZ,

	glfw.Key0: gpucontext.Key0, glfw.Key1: gpucontext.Key1, glfw.Key2: gpucontext.Key2,
	glfw.Key3: gpucontext.Key3, glfw.Key4: gpucontext.Key4, glfw.Key5: gpucontext.Key5,
	glfw.Key6: gpucontext.Key6, glfw.Key7: gpucontext.Key7, glfw.Key8: gpucontext.Key8,
	glfw.Key9: gpucontext.Key9,

	glfw.KeySpace:        gpucontext.KeySpace,
	glfw.KeyEnter:        gpucontext.KeyEnter,
	glfw.KeyTab:          gpucontext.KeyTab,
	glfw.KeyBackspace:    gpucontext.KeyBackspace,
	glfw.KeyLeft:         gpucontext.KeyLeft,
	glfw.KeyRight:        gpucontext.KeyRight,
	glfw.KeyUp:           gpucontext.KeyUp,
	glfw.KeyDown:         gpucontext.KeyDown,
	glfw.KeyLeftShift:    gpucontext.KeyLeftShift,
	glfw.KeyRightShift:   gpucontext.KeyRightShift,
	glfw.KeyLeftControl:  gpucontext.KeyLeftControl,
	glfw.KeyRightControl: gpucontext.KeyRightControl,
	glfw.KeyLeftAlt:      gpucontext.KeyLeftAlt,
	glfw.KeyRightAlt:     gpucontext.KeyRightAlt,
	glfw.KeyF5:           gpucontext.KeyF5,
}

func modifiers(mods glfw.ModifierKey) gpucontext.Modifiers {
	var m gpucontext.Modifiers
	if mods&glfw.ModShift != 0 {
		m |= gpucontext.ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= gpucontext.ModControl
	}
	if mods&glfw.ModAlt != 0 {
		m |= gpucontext.ModAlt
	}
	if mods&glfw.ModSuper != 0 {
		m |= gpucontext.ModSuper
	}
	return m
}
