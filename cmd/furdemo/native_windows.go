//go:build windows

package main

import (
	"unsafe"
)

// nativeHandles returns the window HWND. The backend looks up the module
// instance itself when display is zero.
func (w *window) nativeHandles() (display, handle uintptr, err error) {
	return 0, uintptr(unsafe.Pointer(w.win.GetWin32Window())), nil
}
