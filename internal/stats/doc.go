// Package stats renders the frame statistics panel: frame time, CPU
// time, GPU time when measured, and heap usage.
package stats
