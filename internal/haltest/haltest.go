// Package haltest provides recording fakes of the HAL device, queue and
// command encoder for tests.
//
// The fakes embed the hal/noop backend for everything a test does not care
// about and override the calls the renderer makes, so that every created
// object has a distinct, non-zero native handle and every call is counted.
// Command encoding executes eagerly: render passes write timestamps into
// fake query sets, ResolveQuerySet and CopyBufferToBuffer move bytes at
// record time, and Queue.Submit only advances the submission counter.
package haltest

import (
	"encoding/binary"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Handle is a fake GPU object with a distinct identity.
type Handle struct {
	ID        uintptr
	Label     string
	Destroyed bool
}

// Destroy implements hal.Resource.
func (h *Handle) Destroy() { h.Destroyed = true }

// NativeHandle implements hal.NativeHandle.
func (h *Handle) NativeHandle() uintptr { return h.ID }

// Buffer is a fake buffer backed by host memory.
type Buffer struct {
	Handle
	Data  []byte
	Usage gputypes.BufferUsage
}

// Texture is a fake texture.
type Texture struct {
	Handle
	Desc hal.TextureDescriptor
}

// CurrentUsage implements hal.Texture.
func (t *Texture) CurrentUsage() gputypes.TextureUsage { return t.Desc.Usage }

// AddPendingRef implements hal.Texture.
func (t *Texture) AddPendingRef() {}

// DecPendingRef implements hal.Texture.
func (t *Texture) DecPendingRef() {}

// QuerySet is a fake timestamp query set.
type QuerySet struct {
	Handle
	Values []uint64
}

// BindGroup is a fake bind group that remembers its descriptor.
type BindGroup struct {
	Handle
	Desc hal.BindGroupDescriptor
}

// BindGroupLayout is a fake bind group layout.
type BindGroupLayout struct {
	Handle
	Entries []gputypes.BindGroupLayoutEntry
}

// RenderPipeline is a fake render pipeline.
type RenderPipeline struct {
	Handle
	Desc hal.RenderPipelineDescriptor
}

// Device is a recording hal.Device.
type Device struct {
	noop.Device

	mu     sync.Mutex
	nextID uintptr
	calls  map[string]int

	// RecycleViews makes CreateTextureView hand out the native handles of
	// destroyed views again, most recently freed first, like drivers that
	// reuse VkImageView values.
	RecycleViews bool
	freeViews    []uintptr

	// TimestampsUnsupported makes CreateQuerySet fail like a device
	// without the timestamp-query feature.
	TimestampsUnsupported bool

	// Clock is the fake GPU clock in ticks; every render pass with
	// timestamp writes starts at Clock and lasts PassDuration ticks.
	Clock        uint64
	PassDuration uint64

	Buffers    []*Buffer
	Textures   []*Texture
	BindGroups []*BindGroup
	Pipelines  []*RenderPipeline
	Encoders   []*CommandEncoder
}

// NewDevice returns a Device whose render passes last 1000 ticks.
func NewDevice() *Device {
	return &Device{calls: make(map[string]int), Clock: 1, PassDuration: 1000}
}

// Calls returns how many times the named method was called.
func (d *Device) Calls(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[method]
}

func (d *Device) handle(method, label string) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[method]++
	d.nextID++
	return Handle{ID: 0x1000 + d.nextID, Label: label}
}

func (d *Device) count(method string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[method]++
}

// CreateBuffer implements hal.Device.
func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b := &Buffer{Handle: d.handle("CreateBuffer", desc.Label), Data: make([]byte, desc.Size), Usage: desc.Usage}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// DestroyBuffer implements hal.Device.
func (d *Device) DestroyBuffer(buffer hal.Buffer) {
	d.count("DestroyBuffer")
	buffer.Destroy()
}

// MapBuffer implements hal.Device.
func (d *Device) MapBuffer(buffer hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	d.count("MapBuffer")
	b, ok := buffer.(*Buffer)
	if !ok || offset+size > uint64(len(b.Data)) || size == 0 {
		return hal.BufferMapping{}, hal.ErrInvalidMapRange
	}
	return hal.BufferMapping{Ptr: unsafe.Pointer(&b.Data[offset]), IsCoherent: true}, nil
}

// UnmapBuffer implements hal.Device.
func (d *Device) UnmapBuffer(hal.Buffer) error {
	d.count("UnmapBuffer")
	return nil
}

// CreateTexture implements hal.Device.
func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	t := &Texture{Handle: d.handle("CreateTexture", desc.Label), Desc: *desc}
	d.Textures = append(d.Textures, t)
	return t, nil
}

// DestroyTexture implements hal.Device.
func (d *Device) DestroyTexture(texture hal.Texture) {
	d.count("DestroyTexture")
	texture.Destroy()
}

// CreateTextureView implements hal.Device.
func (d *Device) CreateTextureView(_ hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	label := ""
	if desc != nil {
		label = desc.Label
	}
	h := d.handle("CreateTextureView", label)
	d.mu.Lock()
	if n := len(d.freeViews); d.RecycleViews && n > 0 {
		h.ID = d.freeViews[n-1]
		d.freeViews = d.freeViews[:n-1]
	}
	d.mu.Unlock()
	return &h, nil
}

// DestroyTextureView implements hal.Device.
func (d *Device) DestroyTextureView(view hal.TextureView) {
	d.count("DestroyTextureView")
	view.Destroy()
	if d.RecycleViews {
		d.mu.Lock()
		d.freeViews = append(d.freeViews, view.NativeHandle())
		d.mu.Unlock()
	}
}

// CreateSampler implements hal.Device.
func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	h := d.handle("CreateSampler", desc.Label)
	return &h, nil
}

// DestroySampler implements hal.Device.
func (d *Device) DestroySampler(sampler hal.Sampler) {
	d.count("DestroySampler")
	sampler.Destroy()
}

// CreateBindGroupLayout implements hal.Device.
func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &BindGroupLayout{Handle: d.handle("CreateBindGroupLayout", desc.Label), Entries: desc.Entries}, nil
}

// DestroyBindGroupLayout implements hal.Device.
func (d *Device) DestroyBindGroupLayout(layout hal.BindGroupLayout) {
	d.count("DestroyBindGroupLayout")
	layout.Destroy()
}

// CreateBindGroup implements hal.Device.
func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	g := &BindGroup{Handle: d.handle("CreateBindGroup", desc.Label), Desc: *desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

// DestroyBindGroup implements hal.Device.
func (d *Device) DestroyBindGroup(group hal.BindGroup) {
	d.count("DestroyBindGroup")
	group.Destroy()
}

// CreatePipelineLayout implements hal.Device.
func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	h := d.handle("CreatePipelineLayout", desc.Label)
	return &h, nil
}

// DestroyPipelineLayout implements hal.Device.
func (d *Device) DestroyPipelineLayout(layout hal.PipelineLayout) {
	d.count("DestroyPipelineLayout")
	layout.Destroy()
}

// CreateShaderModule implements hal.Device.
func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	h := d.handle("CreateShaderModule", desc.Label)
	return &h, nil
}

// DestroyShaderModule implements hal.Device.
func (d *Device) DestroyShaderModule(module hal.ShaderModule) {
	d.count("DestroyShaderModule")
	module.Destroy()
}

// CreateRenderPipeline implements hal.Device.
func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p := &RenderPipeline{Handle: d.handle("CreateRenderPipeline", desc.Label), Desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// DestroyRenderPipeline implements hal.Device.
func (d *Device) DestroyRenderPipeline(pipeline hal.RenderPipeline) {
	d.count("DestroyRenderPipeline")
	pipeline.Destroy()
}

// CreateQuerySet implements hal.Device.
func (d *Device) CreateQuerySet(desc *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	if d.TimestampsUnsupported {
		d.count("CreateQuerySet")
		return nil, hal.ErrTimestampsNotSupported
	}
	return &QuerySet{Handle: d.handle("CreateQuerySet", desc.Label), Values: make([]uint64, desc.Count)}, nil
}

// DestroyQuerySet implements hal.Device.
func (d *Device) DestroyQuerySet(querySet hal.QuerySet) {
	d.count("DestroyQuerySet")
	querySet.Destroy()
}

// CreateCommandEncoder implements hal.Device.
func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	d.count("CreateCommandEncoder")
	e := &CommandEncoder{device: d}
	d.Encoders = append(d.Encoders, e)
	return e, nil
}

// FreeCommandBuffer implements hal.Device.
func (d *Device) FreeCommandBuffer(hal.CommandBuffer) {
	d.count("FreeCommandBuffer")
}

// BufferByLabel returns the most recently created buffer with the label.
func (d *Device) BufferByLabel(label string) *Buffer {
	for i := len(d.Buffers) - 1; i >= 0; i-- {
		if d.Buffers[i].Label == label {
			return d.Buffers[i]
		}
	}
	return nil
}

// Queue is a recording hal.Queue whose completion is driven by the test.
type Queue struct {
	noop.Queue

	// AutoComplete marks every submission complete immediately.
	AutoComplete bool

	// Period is returned by GetTimestampPeriod; zero means 1.
	Period float32

	Submitted     uint64
	Completed     uint64
	BufferWrites  int
	TextureWrites int
	Presents      int

	LastTextureData   []byte
	LastTextureLayout hal.ImageDataLayout
	LastTextureSize   hal.Extent3D
}

// Submit implements hal.Queue.
func (q *Queue) Submit([]hal.CommandBuffer) (uint64, error) {
	q.Submitted++
	if q.AutoComplete {
		q.Completed = q.Submitted
	}
	return q.Submitted, nil
}

// PollCompleted implements hal.Queue.
func (q *Queue) PollCompleted() uint64 { return q.Completed }

// CompleteAll marks every submission so far complete.
func (q *Queue) CompleteAll() { q.Completed = q.Submitted }

// WriteBuffer implements hal.Queue.
func (q *Queue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.BufferWrites++
	b, ok := buffer.(*Buffer)
	if !ok {
		return fmt.Errorf("haltest: WriteBuffer: unexpected buffer type %T", buffer)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return hal.ErrInvalidMapRange
	}
	copy(b.Data[offset:], data)
	return nil
}

// WriteTexture implements hal.Queue.
func (q *Queue) WriteTexture(_ *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.TextureWrites++
	q.LastTextureData = data
	q.LastTextureLayout = *layout
	q.LastTextureSize = *size
	return nil
}

// Present implements hal.Queue.
func (q *Queue) Present(hal.Surface, hal.SurfaceTexture, []image.Rectangle) error {
	q.Presents++
	return nil
}

// GetTimestampPeriod implements hal.Queue.
func (q *Queue) GetTimestampPeriod() float32 {
	if q.Period == 0 {
		return 1
	}
	return q.Period
}

// CommandEncoder records the commands of one batch.
type CommandEncoder struct {
	noop.CommandEncoder

	device *Device

	Label    string
	Passes   []*RenderPass
	Resolves int
	Copies   int
}

// BeginEncoding implements hal.CommandEncoder.
func (e *CommandEncoder) BeginEncoding(label string) error {
	e.Label = label
	return nil
}

// EndEncoding implements hal.CommandEncoder.
func (e *CommandEncoder) EndEncoding() (hal.CommandBuffer, error) {
	h := e.device.handle("EndEncoding", e.Label)
	return &h, nil
}

// ResolveQuerySet implements hal.CommandEncoder. Timestamps are written to
// the destination as little-endian uint64 values.
func (e *CommandEncoder) ResolveQuerySet(querySet hal.QuerySet, first, count uint32, dst hal.Buffer, dstOffset uint64) {
	e.Resolves++
	qs, ok := querySet.(*QuerySet)
	b, ok2 := dst.(*Buffer)
	if !ok || !ok2 {
		return
	}
	for i := uint32(0); i < count; i++ {
		off := dstOffset + uint64(i)*8
		binary.LittleEndian.PutUint64(b.Data[off:off+8], qs.Values[first+i])
	}
}

// CopyBufferToBuffer implements hal.CommandEncoder.
func (e *CommandEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	e.Copies++
	s, ok := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok || !ok2 {
		return
	}
	for _, r := range regions {
		copy(d.Data[r.DstOffset:r.DstOffset+r.Size], s.Data[r.SrcOffset:r.SrcOffset+r.Size])
	}
}

// BeginRenderPass implements hal.CommandEncoder.
func (e *CommandEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &RenderPass{Desc: *desc, device: e.device}
	if tw := desc.TimestampWrites; tw != nil {
		if qs, ok := tw.QuerySet.(*QuerySet); ok && tw.BeginningOfPassWriteIndex != nil {
			qs.Values[*tw.BeginningOfPassWriteIndex] = e.device.Clock
		}
	}
	e.Passes = append(e.Passes, p)
	return p
}

// RenderPass records the calls made on one render pass.
type RenderPass struct {
	noop.RenderPassEncoder

	device *Device

	Desc          hal.RenderPassDescriptor
	Pipelines     []hal.RenderPipeline
	BindGroups    map[uint32]hal.BindGroup
	VertexBuffers map[uint32]hal.Buffer
	IndexBuffer   hal.Buffer
	IndexFormat   gputypes.IndexFormat
	Draws         []Draw
	Ended         bool
}

// Draw is one recorded draw call.
type Draw struct {
	Indexed   bool
	Count     uint32
	Instances uint32
}

// SetPipeline implements hal.RenderPassEncoder.
func (p *RenderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.Pipelines = append(p.Pipelines, pipeline)
}

// SetBindGroup implements hal.RenderPassEncoder.
func (p *RenderPass) SetBindGroup(index uint32, group hal.BindGroup, _ []uint32) {
	if p.BindGroups == nil {
		p.BindGroups = make(map[uint32]hal.BindGroup)
	}
	p.BindGroups[index] = group
}

// SetVertexBuffer implements hal.RenderPassEncoder.
func (p *RenderPass) SetVertexBuffer(slot uint32, buffer hal.Buffer, _ uint64) {
	if p.VertexBuffers == nil {
		p.VertexBuffers = make(map[uint32]hal.Buffer)
	}
	p.VertexBuffers[slot] = buffer
}

// SetIndexBuffer implements hal.RenderPassEncoder.
func (p *RenderPass) SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, _ uint64) {
	p.IndexBuffer = buffer
	p.IndexFormat = format
}

// Draw implements hal.RenderPassEncoder.
func (p *RenderPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.Draws = append(p.Draws, Draw{Count: vertexCount, Instances: instanceCount})
}

// DrawIndexed implements hal.RenderPassEncoder.
func (p *RenderPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.Draws = append(p.Draws, Draw{Indexed: true, Count: indexCount, Instances: instanceCount})
}

// End implements hal.RenderPassEncoder. Advances the device clock by the
// pass duration and writes the end-of-pass timestamp.
func (p *RenderPass) End() {
	p.Ended = true
	p.device.Clock += p.device.PassDuration
	if tw := p.Desc.TimestampWrites; tw != nil {
		if qs, ok := tw.QuerySet.(*QuerySet); ok && tw.EndOfPassWriteIndex != nil {
			qs.Values[*tw.EndOfPassWriteIndex] = p.device.Clock
		}
	}
}
