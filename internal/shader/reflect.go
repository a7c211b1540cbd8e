package shader

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Reflection describes the resource interface of a program.
type Reflection struct {
	// Groups maps a bind group index to its layout entries, sorted by
	// binding.
	Groups map[uint32][]gputypes.BindGroupLayoutEntry
	// EntryPoints maps entry point names to their stage.
	EntryPoints map[string]gputypes.ShaderStage
}

// GroupCount returns one past the highest bind group index in use.
func (r *Reflection) GroupCount() uint32 {
	var n uint32
	for g := range r.Groups {
		if g+1 > n {
			n = g + 1
		}
	}
	return n
}

// Reflect parses src and derives bind group layout entries from its
// resource globals. A resource is visible to the stages of the entry
// points that reference it; resources referenced only from helper
// functions are visible to both vertex and fragment stages.
func Reflect(src string) (*Reflection, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}
	return reflectModule(module)
}

func reflectModule(module *ir.Module) (*Reflection, error) {
	visibility := make(map[ir.GlobalVariableHandle]gputypes.ShaderStages)
	entryPoints := make(map[string]gputypes.ShaderStage, len(module.EntryPoints))

	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		stage := stageOf(ep.Stage)
		entryPoints[ep.Name] = stage
		markGlobals(&ep.Function, stage, visibility)
	}
	for i := range module.Functions {
		markGlobals(&module.Functions[i], gputypes.ShaderStagesVertexFragment, visibility)
	}

	r := &Reflection{
		Groups:      make(map[uint32][]gputypes.BindGroupLayoutEntry),
		EntryPoints: entryPoints,
	}
	for h, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		vis := visibility[ir.GlobalVariableHandle(h)]
		if vis == gputypes.ShaderStageNone {
			continue
		}
		entry, err := layoutEntry(module, &gv, vis)
		if err != nil {
			return nil, err
		}
		r.Groups[gv.Binding.Group] = append(r.Groups[gv.Binding.Group], entry)
	}
	for g := range r.Groups {
		entries := r.Groups[g]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	}
	return r, nil
}

func stageOf(s ir.ShaderStage) gputypes.ShaderStage {
	switch s {
	case ir.StageVertex:
		return gputypes.ShaderStageVertex
	case ir.StageFragment:
		return gputypes.ShaderStageFragment
	case ir.StageCompute:
		return gputypes.ShaderStageCompute
	default:
		return gputypes.ShaderStageNone
	}
}

func markGlobals(fn *ir.Function, stage gputypes.ShaderStages, vis map[ir.GlobalVariableHandle]gputypes.ShaderStages) {
	for _, e := range fn.Expressions {
		if g, ok := e.Kind.(ir.ExprGlobalVariable); ok {
			vis[g.Variable] |= stage
		}
	}
}

func layoutEntry(module *ir.Module, gv *ir.GlobalVariable, vis gputypes.ShaderStages) (gputypes.BindGroupLayoutEntry, error) {
	entry := gputypes.BindGroupLayoutEntry{
		Binding:    gv.Binding.Binding,
		Visibility: vis,
	}
	if int(gv.Type) >= len(module.Types) {
		return entry, fmt.Errorf("%w: %s has no type", ErrUnsupportedBinding, gv.Name)
	}

	switch gv.Space {
	case ir.SpaceUniform:
		entry.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: uint64(ir.TypeSize(module, gv.Type)),
		}
		return entry, nil
	case ir.SpaceStorage:
		kind := gputypes.BufferBindingTypeStorage
		if gv.Access == ir.StorageRead {
			kind = gputypes.BufferBindingTypeReadOnlyStorage
		}
		entry.Buffer = &gputypes.BufferBindingLayout{Type: kind}
		return entry, nil
	case ir.SpaceHandle:
	default:
		return entry, fmt.Errorf("%w: %s in address space %d", ErrUnsupportedBinding, gv.Name, gv.Space)
	}

	switch t := module.Types[gv.Type].Inner.(type) {
	case ir.SamplerType:
		kind := gputypes.SamplerBindingTypeFiltering
		if t.Comparison {
			kind = gputypes.SamplerBindingTypeComparison
		}
		entry.Sampler = &gputypes.SamplerBindingLayout{Type: kind}
	case ir.ImageType:
		if t.Class == ir.ImageClassStorage || t.Class == ir.ImageClassExternal {
			return entry, fmt.Errorf("%w: %s is a storage or external texture", ErrUnsupportedBinding, gv.Name)
		}
		entry.Texture = &gputypes.TextureBindingLayout{
			SampleType:    sampleType(t),
			ViewDimension: viewDimension(t),
			Multisampled:  t.Multisampled,
		}
	default:
		return entry, fmt.Errorf("%w: %s has type %T", ErrUnsupportedBinding, gv.Name, t)
	}
	return entry, nil
}

func sampleType(t ir.ImageType) gputypes.TextureSampleType {
	if t.Class == ir.ImageClassDepth {
		return gputypes.TextureSampleTypeDepth
	}
	switch t.SampledKind {
	case ir.ScalarSint:
		return gputypes.TextureSampleTypeSint
	case ir.ScalarUint:
		return gputypes.TextureSampleTypeUint
	default:
		return gputypes.TextureSampleTypeFloat
	}
}

func viewDimension(t ir.ImageType) gputypes.TextureViewDimension {
	switch t.Dim {
	case ir.Dim1D:
		return gputypes.TextureViewDimension1D
	case ir.Dim3D:
		return gputypes.TextureViewDimension3D
	case ir.DimCube:
		if t.Arrayed {
			return gputypes.TextureViewDimensionCubeArray
		}
		return gputypes.TextureViewDimensionCube
	default:
		if t.Arrayed {
			return gputypes.TextureViewDimension2DArray
		}
		return gputypes.TextureViewDimension2D
	}
}

// Validate compiles src with naga and reports the first problem found.
func Validate(src string) error {
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
