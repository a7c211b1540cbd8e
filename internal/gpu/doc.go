// Package gpu holds the small GPU building blocks the fur renderer is made
// of: a buffer with WebGPU-style asynchronous mapping on top of the HAL's
// synchronous MapBuffer, and the off-screen color/depth target pair whose
// lifetime follows the surface size.
//
// Everything here talks to github.com/gogpu/wgpu/hal directly. Completion
// of GPU work is observed with hal.Queue.PollCompleted; nothing in this
// package blocks on the GPU.
package gpu
