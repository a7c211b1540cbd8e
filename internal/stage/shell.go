package stage

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/shader"
)

// DefaultShellCount is the number of shells drawn per model.
const DefaultShellCount = 64

// Shell draws the model once per shell, each instance offset further
// along the normals, to form the fur.
type Shell struct {
	base
	count uint32
}

// NewShell creates the shell stage. A count of zero selects
// DefaultShellCount.
func NewShell(device hal.Device, format gputypes.TextureFormat, count uint32) *Shell {
	if count == 0 {
		count = DefaultShellCount
	}
	return &Shell{base: base{device: device, format: format}, count: count}
}

// Name implements Stage.
func (s *Shell) Name() string { return shader.Shell }

// Count returns the number of shells.
func (s *Shell) Count() uint32 { return s.count }

// Build implements Stage.
func (s *Shell) Build(lib *shader.Library) (*Pipeline, error) {
	src, err := lib.Program(shader.Shell, shader.Const{Name: "SHELL_COUNT", Value: s.count})
	if err != nil {
		return nil, err
	}
	blend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	return s.build(&PipelineDescriptor{
		Label:         "fur_shell",
		Source:        src,
		VertexBuffers: []gputypes.VertexBufferLayout{VertexLayout()},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
		},
		DepthStencil: depthState(true, gputypes.CompareFunctionLess),
		Target:       colorTarget(s.format, &blend),
	})
}

// VertexLayout returns the layout of geometry.Mesh vertices.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: geometry.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: geometry.NormalOffset, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x2, Offset: geometry.UVOffset, ShaderLocation: 2},
		},
	}
}

// Draw records the shells of model into pass. The pipeline and bind group
// are set even when model is nil, so the pass state does not depend on
// whether the model has loaded.
func (s *Shell) Draw(pass hal.RenderPassEncoder, ctx *Context, model *Model) error {
	if err := s.bind(pass); err != nil {
		return err
	}
	group, err := ctx.bindGroup(s.pipeline, ctx.uniforms())
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, group, nil)
	if model != nil {
		model.Draw(pass, s.count)
	}
	return nil
}
