// Package timing measures GPU execution time of render passes with
// timestamp queries, without ever waiting on the GPU.
//
// An Instrument owns a ring of timestamp query slots. Each recorded pass
// takes a begin/end pair. At the end of a frame the written slots are
// resolved into a buffer and copied into a CPU-visible result buffer in
// the same command batch; after submission the result buffer is mapped
// asynchronously. Poll, called once per frame, completes the mapping when
// the GPU is done, folds the durations into the running average and makes
// the ring available again.
//
// While the result buffer is mapped or waiting to be mapped, a new cycle
// cannot start: EndFrame appends nothing and Measure does nothing. The ring
// is not rewound in that case, so passes recorded during a busy frame keep
// consuming slots until the outstanding measurement completes.
package timing
