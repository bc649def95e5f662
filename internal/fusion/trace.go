package fusion

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/emirpasic/gods/v2/sets/hashset"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// Trace holds what the fusion pass recorded about one group: the inputs it
// reads, the synthetic tensors to leave alone, the views between tensors and
// the shape the kernel iterates over.
type Trace struct {
	Inputs    *RegisteredTensors
	Unhandled *hashset.Set[ir.TensorID]
	Views     []TensorView
	ShapeRef  tensor.Shape
	Settings  FuseSettings
}

// NewTrace creates an empty trace.
func NewTrace(shapeRef tensor.Shape, settings FuseSettings) *Trace {
	return &Trace{
		Inputs:    NewRegisteredTensors(),
		Unhandled: hashset.New[ir.TensorID](),
		ShapeRef:  shapeRef.Clone(),
		Settings:  settings,
	}
}

// RegisterInput registers a relative tensor read by the group and returns its position.
func (t *Trace) RegisterInput(relative ir.TensorIr, p Precision) int {
	return t.Inputs.Insert(p, relative)
}

// MarkUnhandled excludes ids from reference and in-place analysis.
func (t *Trace) MarkUnhandled(ids ...ir.TensorID) {
	t.Unhandled.Add(ids...)
}

// AddView records a view between two tensors of the group.
func (t *Trace) AddView(v TensorView) {
	t.Views = append(t.Views, v)
}

// Rank returns the working rank: the largest of the reference rank and the
// rank of every registered input.
func (t *Trace) Rank() int {
	rank := len(t.ShapeRef)
	t.Inputs.Each(func(_ int, in RegisteredTensor) {
		rank = max(rank, len(in.Tensor.Shape))
	})
	return rank
}

// PlanInputs runs the input planner on a fresh LaunchPlan.
//
// A lookup failure means the trace and the context disagree; the compilation
// attempt is abandoned and the error returned so the caller can fall back to
// unfused execution.
func (t *Trace) PlanInputs(ctx *Context) (plan *LaunchPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			var rerr *ResolveError
			if e, ok := r.(error); ok && errors.As(e, &rerr) {
				plan, err = nil, fmt.Errorf("plan fusion inputs: %w", e)
				return
			}
			panic(r)
		}
	}()

	plan = NewLaunchPlan(t.Rank())
	NewInputPlanner(t.Inputs, t.Unhandled, t.Views, t.ShapeRef, &t.Settings).Run(ctx, plan)

	slog.Debug("planned fusion inputs", "plan", plan)
	return plan, nil
}
