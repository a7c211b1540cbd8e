// Package fur renders animated shell fur over a sky gradient with an FXAA
// post-process pass and a statistics overlay.
//
// # Overview
//
// A Renderer draws one frame per call to Frame in three render passes:
//
//   - sky: a fullscreen triangle into the off-screen color target, clearing
//     color and depth
//   - shell: the model drawn once per shell as an instanced draw
//   - post: the color target filtered onto the presented surface, followed
//     by the statistics overlay
//
// Stages get their bind groups and samplers from a per-frame resource
// cache. Bind groups are matched by descriptor and evicted after a fixed
// number of frames, so stages describe what they need every frame instead
// of holding on to binding objects.
//
// When the device supports timestamp queries every pass is timed. The
// timestamps are resolved and read back asynchronously; Frame never waits
// for the GPU.
//
// # Quick Start
//
//	r, err := fur.New(device, queue, fur.WithSurfaceFormat(format))
//	if err != nil {
//	    return err
//	}
//	defer r.Destroy()
//
//	r.Input().Attach(events)
//	for running {
//	    view := acquire()
//	    if err := r.Frame(time.Now(), fur.FrameTarget{View: view, Width: w, Height: h}); err != nil {
//	        return err
//	    }
//	    present()
//	}
//
// # Logging
//
// fur logs through log/slog and is silent by default; see SetLogger.
package fur
