// Package cache keeps the short-lived GPU binding objects a frame needs so
// that stages can ask for them every frame without re-creating them.
//
// # Bind groups
//
// BindGroupCache finds an existing bind group by structural comparison of
// its descriptor (see SameBindGroup) with a linear scan over the live
// entries. A new entry starts with a fixed lifetime in frames; Tick, called
// once per frame, counts every entry down and evicts those that reach zero.
// A hit does not refresh the lifetime, so every bind group is rebuilt at a
// fixed cadence even when it is requested every frame.
//
// Entries carry the hal object behind each native handle (see Entry). A
// view destroyed on resize may hand its handle to its replacement, and the
// replacement must not match bind groups built for the old view.
//
// Evicted bind groups may still be referenced by command batches in flight,
// so they are destroyed only after the queue reports the batch submitted
// in the evicting frame complete.
//
// # Samplers
//
// SamplerCache creates one sampler per distinct descriptor (the debug label
// does not count) and never evicts.
//
// # Pipeline layouts
//
// LayoutCache memoizes the bind group layouts a pipeline exposes per group
// index. The layout source is queried once per (pipeline, index) pair.
//
// # Thread Safety
//
// The caches are driven from the single frame loop. Memo is safe for
// concurrent use; BindGroupCache and SamplerCache are not.
package cache
