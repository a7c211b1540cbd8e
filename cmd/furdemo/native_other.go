//go:build !linux && !windows

package main

import (
	"errors"
	"runtime"
)

var errNoSurface = errors.New("furdemo: windowed mode is not supported on " + runtime.GOOS + "; use -headless")

func (w *window) nativeHandles() (display, handle uintptr, err error) {
	return 0, 0, errNoSurface
}
