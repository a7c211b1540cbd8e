// Package geometry loads Wavefront OBJ meshes and builds the interleaved
// vertex and index data drawn by the shell stage.
//
// A vertex is eight float32 values: position, normal and texture
// coordinate. Indices are uint16.
package geometry
