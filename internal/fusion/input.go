package fusion

import (
	"slices"

	"github.com/emirpasic/gods/v2/sets/hashset"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// InputPlanner fetches the handles of a fusion group's inputs, registers them
// in a LaunchPlan and identifies the shape reference and the inputs that can
// be reused in place.
//
// Everything it is built from is borrowed and must stay unchanged for the
// duration of Run.
type InputPlanner struct {
	inputs    *RegisteredTensors
	unhandled *hashset.Set[ir.TensorID]
	views     []TensorView
	shapeRef  tensor.Shape
	settings  *FuseSettings
}

// NewInputPlanner creates a planner. unhandled may be nil.
func NewInputPlanner(
	inputs *RegisteredTensors,
	unhandled *hashset.Set[ir.TensorID],
	views []TensorView,
	shapeRef tensor.Shape,
	settings *FuseSettings,
) *InputPlanner {
	return &InputPlanner{
		inputs:    inputs,
		unhandled: unhandled,
		views:     views,
		shapeRef:  shapeRef,
		settings:  settings,
	}
}

// Run appends one HandleInput and one global descriptor per registered input,
// in registration order, and sets the reference and in-place fields of plan.
//
// Run panics with a *ResolveError when a registered input is missing from ctx.
func (p *InputPlanner) Run(ctx *Context, plan *LaunchPlan) {
	p.inputs.Each(func(pos int, input RegisteredTensor) {
		relative := input.Tensor

		// The status must come from the relative graph: the global one may
		// belong to a later operation on the same tensor.
		global, handle, err := ctx.Resolve(relative.ID, relative.Status)
		if err != nil {
			panic(err)
		}

		p.analyze(plan, pos, relative, handle)

		if len(global.Shape) < plan.Rank {
			numElem := global.Shape.NumElements()
			pad := plan.Rank - len(global.Shape)
			strides := make([]int, pad, pad+len(handle.Strides))
			for i := range strides {
				strides[i] = numElem
			}
			handle.Strides = append(strides, handle.Strides...)
			global.Shape = global.Shape.PadLeft(plan.Rank)
		}

		plan.HandleInputs = append(plan.HandleInputs, HandleInput{
			Precision:     input.Precision,
			Handle:        handle,
			RelativeID:    relative.ID,
			GlobalID:      global.ID,
			GlobalShape:   global.Shape.Clone(),
			Vectorization: 1,
			Broadcasted:   false,
		})
		plan.GlobalInputs = append(plan.GlobalInputs, global)
	})
}

func (p *InputPlanner) analyze(plan *LaunchPlan, pos int, relative ir.TensorIr, handle Handle) {
	if p.unhandled != nil && p.unhandled.Contains(relative.ID) {
		return
	}

	for _, view := range p.views {
		switch v := view.(type) {
		case ReshapeView:
			if v.Original == relative.ID || v.Reshaped == relative.ID {
				if plan.ReferenceInput == nil && v.ShapeRelative.Equal(p.shapeRef) {
					plan.ReferenceInput = ReshapedReference{ReshapePos: v.ReshapePos}
				}
				return
			}
		case SwapDimsView:
			if v.Swapped == relative.ID {
				return
			}
			if v.Original == relative.ID {
				if plan.ReferenceInput == nil {
					shape := relative.Shape.SwapDims(v.Dims[0], v.Dims[1])
					if shape.Equal(p.shapeRef) {
						plan.ReferenceInput = SwapDimsReference{OriginalPos: pos, Dims: v.Dims}
					}
				}
				return
			}
		}
	}

	if !relative.Shape.Equal(p.shapeRef) {
		return
	}

	if relative.Status == ir.ReadWrite && handle.Buffer.CanMut() && p.settings.Inplace {
		plan.PotentialInplaces = append(plan.PotentialInplaces, PotentialInplace{
			InputPos:       pos,
			TensorRelative: relative.Clone(),
			Strides:        slices.Clone(handle.Strides),
		})
	}

	if plan.ReferenceInput == nil {
		plan.ReferenceInput = NormalReference{InputPos: pos}
	}
}
