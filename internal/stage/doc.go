// Package stage implements the render stages of a frame: the sky
// background, the instanced fur shells, the FXAA resolve and the
// statistics overlay.
//
// Each stage owns a Pipeline built from a shader program and its
// reflected bind group layouts. Stages do not create bind groups or
// samplers themselves; they ask the per-frame resource cache through a
// Context, so equal requests across frames share one GPU object.
package stage
