// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrBufferAlreadyMapped is returned when attempting to map an already mapped buffer.
	ErrBufferAlreadyMapped = errors.New("gpu: buffer is already mapped or mapping is pending")

	// ErrBufferNotMapped is returned when attempting to access unmapped buffer data.
	ErrBufferNotMapped = errors.New("gpu: buffer is not mapped")

	// ErrBufferMapPending is returned when accessing a buffer with pending map operation.
	ErrBufferMapPending = errors.New("gpu: buffer mapping is pending")

	// ErrInvalidMapMode is returned when mapping with an invalid mode.
	ErrInvalidMapMode = errors.New("gpu: invalid map mode")

	// ErrInvalidMapRange is returned when the map range is out of bounds.
	ErrInvalidMapRange = errors.New("gpu: map range out of bounds")

	// ErrMapUsageMismatch is returned when mapping mode doesn't match buffer usage.
	ErrMapUsageMismatch = errors.New("gpu: map mode does not match buffer usage flags")

	// ErrCallbackNil is returned when MapAsync is called with nil callback.
	ErrCallbackNil = errors.New("gpu: map callback is nil")
)

// BufferMapState represents the mapping state of a buffer.
type BufferMapState int

const (
	// BufferMapStateUnmapped means the buffer is not mapped.
	BufferMapStateUnmapped BufferMapState = iota
	// BufferMapStatePending means a map operation is pending.
	BufferMapStatePending
	// BufferMapStateMapped means the buffer is mapped.
	BufferMapStateMapped
)

// String returns the string representation of BufferMapState.
func (s BufferMapState) String() string {
	switch s {
	case BufferMapStateUnmapped:
		return "Unmapped"
	case BufferMapStatePending:
		return "Pending"
	case BufferMapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// BufferMapAsyncStatus represents the result of an async map operation.
type BufferMapAsyncStatus int

const (
	// BufferMapAsyncStatusSuccess indicates mapping completed successfully.
	BufferMapAsyncStatusSuccess BufferMapAsyncStatus = iota
	// BufferMapAsyncStatusValidationError indicates a validation error.
	BufferMapAsyncStatusValidationError
	// BufferMapAsyncStatusError indicates the device refused the mapping.
	BufferMapAsyncStatusError
	// BufferMapAsyncStatusDestroyedBeforeCallback indicates buffer was destroyed.
	BufferMapAsyncStatusDestroyedBeforeCallback
	// BufferMapAsyncStatusUnmappedBeforeCallback indicates buffer was unmapped.
	BufferMapAsyncStatusUnmappedBeforeCallback
	// BufferMapAsyncStatusMappingAlreadyPending indicates another map is pending.
	BufferMapAsyncStatusMappingAlreadyPending
)

// String returns the string representation of BufferMapAsyncStatus.
func (s BufferMapAsyncStatus) String() string {
	switch s {
	case BufferMapAsyncStatusSuccess:
		return "Success"
	case BufferMapAsyncStatusValidationError:
		return "ValidationError"
	case BufferMapAsyncStatusError:
		return "Error"
	case BufferMapAsyncStatusDestroyedBeforeCallback:
		return "DestroyedBeforeCallback"
	case BufferMapAsyncStatusUnmappedBeforeCallback:
		return "UnmappedBeforeCallback"
	case BufferMapAsyncStatusMappingAlreadyPending:
		return "MappingAlreadyPending"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Buffer wraps a hal.Buffer with WebGPU-style asynchronous mapping.
//
// The HAL exposes only a synchronous MapBuffer whose caller must guarantee
// that the GPU is done writing. Buffer provides that guarantee: MapAsync
// records the queue submission that produces the data, and PollMapAsync
// maps the memory only once the queue reports that submission complete.
// Nothing ever waits on the GPU.
//
// Lifecycle:
//  1. Create via CreateBuffer()
//  2. Submit the work that writes the buffer, then MapAsync() with its submission index
//  3. Call PollMapAsync() once per frame; the callback fires when the data is ready
//  4. Read with GetMappedRange()
//  5. Call Unmap() when done
//  6. Call Destroy() when the buffer is no longer needed
type Buffer struct {
	mu sync.RWMutex

	halBuffer hal.Buffer
	device    hal.Device
	queue     hal.Queue

	// descriptor holds the buffer configuration (immutable after creation).
	descriptor BufferDescriptor

	mapState  BufferMapState
	mapMode   gputypes.MapMode
	mapOffset uint64
	mapSize   uint64

	// mapAfter is the submission index that must complete before the
	// pending map may resolve.
	mapAfter uint64

	// mappedData holds the mapped memory (only valid when mapped).
	mappedData []byte

	mapCallback func(BufferMapAsyncStatus)

	destroyed bool
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// NewBuffer wraps an existing hal.Buffer. Ownership of halBuffer moves to
// the returned Buffer.
func NewBuffer(halBuffer hal.Buffer, device hal.Device, queue hal.Queue, desc *BufferDescriptor) *Buffer {
	return &Buffer{
		halBuffer:  halBuffer,
		device:     device,
		queue:      queue,
		descriptor: *desc,
		mapState:   BufferMapStateUnmapped,
	}
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string {
	return b.descriptor.Label
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.descriptor.Size
}

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage {
	return b.descriptor.Usage
}

// MapState returns the current mapping state.
func (b *Buffer) MapState() BufferMapState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mapState
}

// Raw returns the underlying buffer handle, or nil once destroyed.
func (b *Buffer) Raw() hal.Buffer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil
	}
	return b.halBuffer
}

// MapAsync initiates an async map operation.
//
// after is the queue submission index whose completion makes the buffer
// contents valid; pass 0 when no GPU work writes the buffer. The state
// moves to Pending and stays there until PollMapAsync observes that the
// queue has completed that submission.
//
// Returns an error if the buffer has been destroyed, is already mapped or
// pending, the mode doesn't match the usage flags, the range is out of
// bounds, or the callback is nil.
func (b *Buffer) MapAsync(mode gputypes.MapMode, offset, size, after uint64, callback func(BufferMapAsyncStatus)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrBufferDestroyed
	}

	if b.mapState != BufferMapStateUnmapped {
		if callback != nil {
			callback(BufferMapAsyncStatusMappingAlreadyPending)
		}
		return ErrBufferAlreadyMapped
	}

	if callback == nil {
		return ErrCallbackNil
	}

	if mode == 0 {
		callback(BufferMapAsyncStatusValidationError)
		return ErrInvalidMapMode
	}

	if mode == gputypes.MapModeRead && !b.descriptor.Usage.Contains(gputypes.BufferUsageMapRead) {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: buffer does not have MapRead usage", ErrMapUsageMismatch)
	}
	if mode == gputypes.MapModeWrite && !b.descriptor.Usage.Contains(gputypes.BufferUsageMapWrite) {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: buffer does not have MapWrite usage", ErrMapUsageMismatch)
	}

	if offset+size > b.descriptor.Size {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: offset %d + size %d > buffer size %d", ErrInvalidMapRange, offset, size, b.descriptor.Size)
	}

	// WebGPU requires 8-byte aligned map offsets.
	const mapAlignment uint64 = 8
	if offset%mapAlignment != 0 {
		callback(BufferMapAsyncStatusValidationError)
		return fmt.Errorf("%w: offset %d must be %d-byte aligned", ErrInvalidMapRange, offset, mapAlignment)
	}

	b.mapState = BufferMapStatePending
	b.mapMode = mode
	b.mapOffset = offset
	b.mapSize = size
	b.mapAfter = after
	b.mapCallback = callback

	return nil
}

// PollMapAsync advances a pending map without blocking.
//
// Returns true when no map is pending anymore (it completed, failed, or
// none was requested). Returns false while the GPU has not yet finished the
// submission the map waits on.
func (b *Buffer) PollMapAsync() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mapState != BufferMapStatePending {
		return true
	}

	if b.destroyed {
		b.finishLocked(BufferMapStateUnmapped, BufferMapAsyncStatusDestroyedBeforeCallback)
		return true
	}

	if b.queue != nil && b.queue.PollCompleted() < b.mapAfter {
		return false
	}

	mapping, err := b.device.MapBuffer(b.halBuffer, b.mapOffset, b.mapSize)
	if err != nil {
		slogger().Warn("gpu: map buffer failed", "label", b.descriptor.Label, "err", err)
		b.finishLocked(BufferMapStateUnmapped, BufferMapAsyncStatusError)
		return true
	}

	b.mappedData = unsafe.Slice((*byte)(mapping.Ptr), b.mapSize)
	b.finishLocked(BufferMapStateMapped, BufferMapAsyncStatusSuccess)
	return true
}

// finishLocked moves the buffer out of Pending and runs the callback with
// the lock released, so the callback may read and unmap the buffer.
func (b *Buffer) finishLocked(state BufferMapState, status BufferMapAsyncStatus) {
	b.mapState = state
	callback := b.mapCallback
	b.mapCallback = nil
	if callback == nil {
		return
	}
	b.mu.Unlock()
	callback(status)
	b.mu.Lock()
}

// GetMappedRange returns the mapped data slice for [offset, offset+size).
// The offset is relative to the buffer, not the mapped region. The slice is
// only valid until Unmap.
func (b *Buffer) GetMappedRange(offset, size uint64) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return nil, ErrBufferDestroyed
	}

	if b.mapState == BufferMapStatePending {
		return nil, ErrBufferMapPending
	}
	if b.mapState != BufferMapStateMapped {
		return nil, ErrBufferNotMapped
	}

	if offset < b.mapOffset {
		return nil, fmt.Errorf("%w: offset %d is before mapped region start %d",
			ErrInvalidMapRange, offset, b.mapOffset)
	}
	if offset+size > b.mapOffset+b.mapSize {
		return nil, fmt.Errorf("%w: offset %d + size %d exceeds mapped region end %d",
			ErrInvalidMapRange, offset, size, b.mapOffset+b.mapSize)
	}

	relOffset := offset - b.mapOffset
	return b.mappedData[relOffset : relOffset+size], nil
}

// Unmap returns the buffer to the Unmapped state. A pending map is
// cancelled and its callback receives BufferMapAsyncStatusUnmappedBeforeCallback.
// Unmapping an unmapped buffer is a no-op.
func (b *Buffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrBufferDestroyed
	}

	switch b.mapState {
	case BufferMapStatePending:
		b.mappedData = nil
		b.finishLocked(BufferMapStateUnmapped, BufferMapAsyncStatusUnmappedBeforeCallback)
		return nil
	case BufferMapStateMapped:
		b.mapState = BufferMapStateUnmapped
		b.mappedData = nil
		if err := b.device.UnmapBuffer(b.halBuffer); err != nil {
			return fmt.Errorf("gpu: unmap %q: %w", b.descriptor.Label, err)
		}
	}
	return nil
}

// Destroy releases the buffer. A pending map callback receives
// BufferMapAsyncStatusDestroyedBeforeCallback. Destroy is idempotent.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	device := b.device
	halBuf := b.halBuffer
	callback := b.mapCallback
	wasMapping := b.mapState == BufferMapStatePending
	b.halBuffer = nil
	b.mappedData = nil
	b.mapCallback = nil
	b.mapState = BufferMapStateUnmapped
	b.mu.Unlock()

	if wasMapping && callback != nil {
		callback(BufferMapAsyncStatusDestroyedBeforeCallback)
	}

	if device != nil && halBuf != nil {
		device.DestroyBuffer(halBuf)
	}
}

// CreateBuffer creates a buffer on device. queue is used to observe
// submission completion for MapAsync and may be nil for buffers that are
// never mapped.
func CreateBuffer(device hal.Device, queue hal.Queue, desc *BufferDescriptor) (*Buffer, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if desc == nil {
		return nil, fmt.Errorf("gpu: buffer descriptor is nil")
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}
	if desc.Usage == 0 {
		return nil, fmt.Errorf("gpu: buffer usage is empty")
	}

	// Copies require 4-byte aligned sizes.
	const copyBufferAlignment uint64 = 4
	alignedSize := (desc.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)

	halBuffer, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alignedSize,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", desc.Label, err)
	}

	resolved := *desc
	resolved.Size = alignedSize
	return NewBuffer(halBuffer, device, queue, &resolved), nil
}

// CreateReadbackBuffer creates a MapRead | CopyDst buffer for GPU-to-CPU
// transfers.
func CreateReadbackBuffer(device hal.Device, queue hal.Queue, size uint64, label string) (*Buffer, error) {
	return CreateBuffer(device, queue, &BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
}
