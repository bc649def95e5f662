package fusion

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// InputReference names the input a fused kernel derives its iteration shape
// from. It is a NormalReference, a ReshapedReference or a SwapDimsReference.
type InputReference interface {
	fmt.Stringer
	isInputReference()
}

// NormalReference is an input already matching the reference shape.
type NormalReference struct {
	InputPos int
}

// ReshapedReference derives the shape by replaying the reshape at ReshapePos.
type ReshapedReference struct {
	ReshapePos int
}

// SwapDimsReference derives the shape by swapping Dims of the input at OriginalPos.
type SwapDimsReference struct {
	OriginalPos int
	Dims        [2]int
}

func (NormalReference) isInputReference()   {}
func (ReshapedReference) isInputReference() {}
func (SwapDimsReference) isInputReference() {}

func (r NormalReference) String() string {
	return fmt.Sprintf("normal(input %d)", r.InputPos)
}

func (r ReshapedReference) String() string {
	return fmt.Sprintf("reshaped(op %d)", r.ReshapePos)
}

func (r SwapDimsReference) String() string {
	return fmt.Sprintf("swap_dims(input %d, %d<->%d)", r.OriginalPos, r.Dims[0], r.Dims[1])
}

// HandleInput binds one registered input to its runtime handle.
type HandleInput struct {
	Precision     Precision
	Handle        Handle
	RelativeID    ir.TensorID
	GlobalID      ir.TensorID
	GlobalShape   tensor.Shape
	Vectorization uint8
	Broadcasted   bool
}

// PotentialInplace proposes an input buffer for reuse as an output.
// A later stage decides whether the reuse happens.
type PotentialInplace struct {
	InputPos       int
	TensorRelative ir.TensorIr
	Strides        []int
}

// LaunchPlan accumulates what each planning stage learns about a fused kernel.
// Stages append to disjoint fields; the plan is owned by one compilation.
type LaunchPlan struct {
	// Rank is the working rank of the kernel.
	Rank int

	// GlobalInputs and HandleInputs are index-aligned with the registered inputs.
	GlobalInputs []ir.TensorIr
	HandleInputs []HandleInput

	// ReferenceInput is nil until an input qualifies as shape reference.
	ReferenceInput    InputReference
	PotentialInplaces []PotentialInplace
}

// NewLaunchPlan creates an empty plan for a kernel of the given rank.
func NewLaunchPlan(rank int) *LaunchPlan {
	return &LaunchPlan{Rank: rank}
}

// LogValue implements slog.LogValuer.
func (p *LaunchPlan) LogValue() slog.Value {
	ref := "none"
	if p.ReferenceInput != nil {
		ref = p.ReferenceInput.String()
	}
	inplace := make([]int, len(p.PotentialInplaces))
	for i, pi := range p.PotentialInplaces {
		inplace[i] = pi.InputPos
	}
	return slog.GroupValue(
		slog.Int("rank", p.Rank),
		slog.Int("inputs", len(p.HandleInputs)),
		slog.String("reference", ref),
		slog.Any("inplace", inplace),
	)
}
