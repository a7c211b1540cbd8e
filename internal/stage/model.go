package stage

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/gpu"
)

// Model is a mesh uploaded to vertex and index buffers.
type Model struct {
	vertices *gpu.Buffer
	indices  *gpu.Buffer
	count    uint32
}

// NewModel uploads mesh through queue.
func NewModel(device hal.Device, queue hal.Queue, mesh *geometry.Mesh) (*Model, error) {
	if mesh.Count == 0 {
		return nil, fmt.Errorf("stage: model has no indices")
	}
	vb, err := upload(device, queue, "fur_model_vertices", gputypes.BufferUsageVertex, mesh.VertexBytes())
	if err != nil {
		return nil, err
	}
	ib, err := upload(device, queue, "fur_model_indices", gputypes.BufferUsageIndex, mesh.IndexBytes())
	if err != nil {
		vb.Destroy()
		return nil, err
	}
	slogger().Info("stage: model uploaded", "vertices", mesh.VertexCount(), "indices", mesh.Count)
	return &Model{vertices: vb, indices: ib, count: mesh.Count}, nil
}

func upload(device hal.Device, queue hal.Queue, label string, usage gputypes.BufferUsage, data []byte) (*gpu.Buffer, error) {
	buf, err := gpu.CreateBuffer(device, queue, &gpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	// Sizes are rounded up to 4 bytes on creation; pad the write to match.
	if pad := int(buf.Size()) - len(data); pad > 0 {
		data = append(data, make([]byte, pad)...)
	}
	if err := queue.WriteBuffer(buf.Raw(), 0, data); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("stage: upload %s: %w", label, err)
	}
	return buf, nil
}

// Count returns the number of indices drawn per instance.
func (m *Model) Count() uint32 { return m.count }

// Draw records an indexed draw of the model with the given instance count.
func (m *Model) Draw(pass hal.RenderPassEncoder, instances uint32) {
	pass.SetVertexBuffer(0, m.vertices.Raw(), 0)
	pass.SetIndexBuffer(m.indices.Raw(), gputypes.IndexFormatUint16, 0)
	pass.DrawIndexed(m.count, instances, 0, 0, 0)
}

// Destroy releases the buffers.
func (m *Model) Destroy() {
	m.vertices.Destroy()
	m.indices.Destroy()
}
