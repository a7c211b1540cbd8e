// Package camera implements the fly camera and the per-frame input state
// that drives it.
//
// Input is filled by callbacks registered on a gpucontext.EventSource.
// The camera reads it once per frame, after which Input.EndFrame latches
// the mouse deltas for the next frame.
package camera
