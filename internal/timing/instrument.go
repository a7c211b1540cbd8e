package timing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/gpu"
)

// DefaultPairs is the number of begin/end pairs the query set holds.
const DefaultPairs = 64

const timestampSize = 8

// Instrument is a fixed-capacity ring of timestamp queries with
// double-buffered, non-blocking readback.
//
// Instrument is not safe for concurrent use; it is driven by the frame loop.
type Instrument struct {
	device   hal.Device
	queue    hal.Queue
	querySet hal.QuerySet
	resolve  *gpu.Buffer
	result   *gpu.Buffer

	slots uint32 // query set size
	limit uint32 // Record fails once the cursor reaches limit

	cursor uint32
	copied uint32 // slots copied into result by the last EndFrame

	period  float64 // nanoseconds per tick
	avg     float64
	samples uint64
	skips   uint64
}

// New creates an instrument with room for pairs timestamp pairs in its
// query set. Record accepts pairs/2 passes per measurement cycle.
//
// New returns an error wrapping hal.ErrTimestampsNotSupported when the
// device cannot write timestamps; callers are expected to run without an
// instrument in that case.
func New(device hal.Device, queue hal.Queue, pairs uint32) (*Instrument, error) {
	if pairs == 0 {
		return nil, ErrInvalidCapacity
	}
	slots := 2 * pairs

	qs, err := device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: "fur_timestamps",
		Type:  hal.QueryTypeTimestamp,
		Count: slots,
	})
	if err != nil {
		return nil, fmt.Errorf("timing: create query set: %w", err)
	}

	size := uint64(slots) * timestampSize
	resolve, err := gpu.CreateBuffer(device, queue, &gpu.BufferDescriptor{
		Label: "fur_timestamps_resolve",
		Size:  size,
		Usage: gputypes.BufferUsageQueryResolve | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		device.DestroyQuerySet(qs)
		return nil, fmt.Errorf("timing: %w", err)
	}
	result, err := gpu.CreateReadbackBuffer(device, queue, size, "fur_timestamps_result")
	if err != nil {
		resolve.Destroy()
		device.DestroyQuerySet(qs)
		return nil, fmt.Errorf("timing: %w", err)
	}

	period := float64(queue.GetTimestampPeriod())
	if period <= 0 {
		period = 1
	}

	slogger().Info("timing: instrument created", "slots", slots, "period_ns", period)
	return &Instrument{
		device:   device,
		queue:    queue,
		querySet: qs,
		resolve:  resolve,
		result:   result,
		slots:    slots,
		limit:    pairs,
		period:   period,
	}, nil
}

// Record reserves the next begin/end slot pair for a render pass.
// It returns ErrRingExhausted when the ring is full; the pass should then
// be encoded without timestamp writes.
func (in *Instrument) Record() (*hal.RenderPassTimestampWrites, error) {
	if in.cursor >= in.limit {
		return nil, fmt.Errorf("%w: cursor %d, limit %d", ErrRingExhausted, in.cursor, in.limit)
	}
	begin, end := in.cursor, in.cursor+1
	in.cursor += 2
	return &hal.RenderPassTimestampWrites{
		QuerySet:                  in.querySet,
		BeginningOfPassWriteIndex: &begin,
		EndOfPassWriteIndex:       &end,
	}, nil
}

// Cursor returns the number of slots recorded since the last completed
// measurement.
func (in *Instrument) Cursor() uint32 { return in.cursor }

// Busy reports whether the result buffer is mapped or waiting to be.
func (in *Instrument) Busy() bool {
	return in.result.MapState() != gpu.BufferMapStateUnmapped
}

// EndFrame appends the resolve of the recorded slots and the copy into the
// result buffer to encoder. It appends nothing while the result buffer is
// busy or when no pass was recorded.
func (in *Instrument) EndFrame(encoder hal.CommandEncoder) {
	if in.Busy() {
		in.skips++
		slogger().Debug("timing: readback busy, resolve skipped", "cursor", in.cursor)
		return
	}
	if in.cursor == 0 {
		in.copied = 0
		return
	}
	encoder.ResolveQuerySet(in.querySet, 0, in.cursor, in.resolve.Raw(), 0)
	encoder.CopyBufferToBuffer(in.resolve.Raw(), in.result.Raw(), []hal.BufferCopy{{
		Size: uint64(in.cursor) * timestampSize,
	}})
	in.copied = in.cursor
}

// Measure starts mapping the result buffer once submission, the batch
// carrying this frame's EndFrame commands, completes. It does nothing while
// the result buffer is busy or when nothing was copied.
func (in *Instrument) Measure(submission uint64) {
	if in.Busy() || in.copied == 0 {
		return
	}
	size := uint64(in.copied) * timestampSize
	err := in.result.MapAsync(gputypes.MapModeRead, 0, size, submission, in.onMapped)
	if err != nil {
		slogger().Warn("timing: map result buffer", "err", err)
	}
}

// Poll completes an outstanding measurement if the GPU is done with it.
// It never blocks and reports whether the instrument is idle afterwards.
func (in *Instrument) Poll() bool {
	return in.result.PollMapAsync()
}

func (in *Instrument) onMapped(status gpu.BufferMapAsyncStatus) {
	if status != gpu.BufferMapAsyncStatusSuccess {
		slogger().Debug("timing: map finished without data", "status", status)
		return
	}

	pairs := in.copied / 2
	data, err := in.result.GetMappedRange(0, uint64(in.copied)*timestampSize)
	if err != nil {
		slogger().Warn("timing: read result buffer", "err", err)
	} else if pairs > 0 {
		var total uint64
		for i := uint32(0); i < in.copied; i += 2 {
			begin := binary.LittleEndian.Uint64(data[i*timestampSize:])
			end := binary.LittleEndian.Uint64(data[(i+1)*timestampSize:])
			if end >= begin {
				total += end - begin
			}
		}
		in.avg = float64(total) * in.period / float64(pairs)
		in.samples++
		slogger().Debug("timing: measured", "pairs", pairs, "avg_ns", in.avg)
	}

	if err := in.result.Unmap(); err != nil && !errors.Is(err, gpu.ErrBufferDestroyed) {
		slogger().Warn("timing: unmap result buffer", "err", err)
	}
	in.cursor = 0
	in.copied = 0
}

// Avg returns the most recent average pass duration in nanoseconds, or 0
// before the first measurement.
func (in *Instrument) Avg() float64 { return in.avg }

// Samples returns the number of completed measurements.
func (in *Instrument) Samples() uint64 { return in.samples }

// Skips returns the number of frames whose resolve was skipped because the
// result buffer was busy.
func (in *Instrument) Skips() uint64 { return in.skips }

// Destroy releases the query set and buffers. A pending measurement is
// cancelled.
func (in *Instrument) Destroy() {
	in.result.Destroy()
	in.resolve.Destroy()
	if in.querySet != nil {
		in.device.DestroyQuerySet(in.querySet)
		in.querySet = nil
	}
}
