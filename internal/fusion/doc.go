// Package fusion plans the inputs of a fused kernel.
//
// A fusion group arrives as a Trace: the tensors it reads (in the numbering of
// the group, the relative graph), the views linking some of them, the shape
// the kernel iterates over and the FuseSettings. Given a Context mapping the
// relative tensors to global descriptors and handles, the InputPlanner fills a
// LaunchPlan with:
//
//   - one HandleInput and one global descriptor per input, in registration
//     order, with global shapes left-padded to the kernel rank;
//   - at most one InputReference, the first input able to give the kernel its
//     shape;
//   - the inputs whose buffer may be written in place (PotentialInplace).
//
// Views are checked before shapes: a reshaped or swapped tensor is always
// re-derived by the kernel and is never bound as a plain operand, even when
// its shape happens to match.
//
// Example:
//
//	trace := fusion.NewTrace(tensor.Shape{4, 4}, fusion.DefaultSettings())
//	trace.RegisterInput(ir.TensorIr{ID: 1, Shape: tensor.Shape{4, 4}, Status: ir.ReadWrite}, fusion.F32)
//	plan, err := trace.PlanInputs(ctx)
package fusion
