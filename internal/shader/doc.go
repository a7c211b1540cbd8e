// Package shader holds the WGSL programs of the renderer and the tooling
// around them: assembling a program from its parts, reflecting its bind
// group layouts with naga, validating it, and watching an override
// directory for edits.
//
// A program is the shared Uniforms declaration, followed by generated
// constant declarations, followed by the stage source. Constants replace
// pipeline-overridable values, which the HAL pipeline descriptors do not
// carry.
package shader
