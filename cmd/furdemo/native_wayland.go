//go:build linux && wayland

package main

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// nativeHandles returns the Wayland display and surface.
func (w *window) nativeHandles() (display, handle uintptr, err error) {
	return uintptr(unsafe.Pointer(glfw.GetWaylandDisplay())), uintptr(unsafe.Pointer(w.win.GetWaylandWindow())), nil
}
