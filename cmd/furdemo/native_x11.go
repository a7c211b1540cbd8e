//go:build linux && !wayland

package main

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// nativeHandles returns the X11 display and window.
func (w *window) nativeHandles() (display, handle uintptr, err error) {
	return uintptr(unsafe.Pointer(glfw.GetX11Display())), uintptr(w.win.GetX11Window()), nil
}
