// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fusion provides the public API of the fusion input planner.
//
// The planner resolves the inputs of a fused kernel to runtime handles,
// picks the input that gives the kernel its shape and lists the input
// buffers that may be reused for outputs:
//
//	ctx := fusion.NewContext()
//	raw, _ := tensor.NewRaw(tensor.Shape{4, 4}, tensor.Float32)
//	ctx.Register(1, fusion.TensorIr{ID: 11, Shape: tensor.Shape{4, 4}, Status: fusion.ReadWrite}, fusion.NewRawHandle(raw))
//
//	trace := fusion.NewTrace(tensor.Shape{4, 4}, fusion.DefaultSettings())
//	trace.RegisterInput(fusion.TensorIr{ID: 1, Shape: tensor.Shape{4, 4}, Status: fusion.ReadWrite}, fusion.F32)
//
//	plan, err := trace.PlanInputs(ctx)
//	if err != nil {
//	    // Run the group unfused.
//	}
//	fmt.Println(plan.ReferenceInput) // normal(input 0)
package fusion

import (
	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/tensor"
)

// Type aliases for public API

// TensorID identifies a tensor in a relative or global graph.
type TensorID = ir.TensorID

// TensorStatus is the access mode of a tensor in an operation.
type TensorStatus = ir.TensorStatus

// Tensor status constants.
const (
	ReadOnly  TensorStatus = ir.ReadOnly
	ReadWrite TensorStatus = ir.ReadWrite
	NotInit   TensorStatus = ir.NotInit
)

// TensorIr describes a tensor: identity, shape, access status and data type.
type TensorIr = ir.TensorIr

// Precision is the element type seen by a fused kernel.
type Precision = fusion.Precision

// Precision constants.
const (
	F64    Precision = fusion.F64
	F32    Precision = fusion.F32
	Flex32 Precision = fusion.Flex32
	F16    Precision = fusion.F16
	BF16   Precision = fusion.BF16
	I64    Precision = fusion.I64
	I32    Precision = fusion.I32
	I16    Precision = fusion.I16
	I8     Precision = fusion.I8
	U64    Precision = fusion.U64
	U32    Precision = fusion.U32
	U16    Precision = fusion.U16
	U8     Precision = fusion.U8
	Bool   Precision = fusion.Bool
)

// FuseSettings are the policy knobs of a fused kernel.
type FuseSettings = fusion.FuseSettings

// Buffer is a device allocation owned by the handle tracker.
type Buffer = fusion.Buffer

// RawBuffer adapts a CPU tensor.RawTensor to Buffer.
type RawBuffer = fusion.RawBuffer

// Handle is a buffer plus the layout used to read it.
type Handle = fusion.Handle

// HandleContainer maps global tensor ids to their handles.
type HandleContainer = fusion.HandleContainer

// Context resolves the tensors of one fusion group to runtime handles.
type Context = fusion.Context

// Trace holds what the fusion pass recorded about one group.
type Trace = fusion.Trace

// TensorView links a tensor to the one it was derived from without copying.
type TensorView = fusion.TensorView

// View types.
type (
	ReshapeView  = fusion.ReshapeView
	SwapDimsView = fusion.SwapDimsView
)

// InputReference designates the input that gives a fused kernel its shape.
type InputReference = fusion.InputReference

// Reference kinds.
type (
	NormalReference   = fusion.NormalReference
	ReshapedReference = fusion.ReshapedReference
	SwapDimsReference = fusion.SwapDimsReference
)

// LaunchPlan accumulates what each planning stage learns about a fused kernel.
type LaunchPlan = fusion.LaunchPlan

// HandleInput is one resolved input of a LaunchPlan.
type HandleInput = fusion.HandleInput

// PotentialInplace proposes an input buffer for reuse as an output.
type PotentialInplace = fusion.PotentialInplace

// ResolveError reports an input that could not be resolved to a handle.
type ResolveError = fusion.ResolveError

// Resolution failures wrapped by ResolveError.
var (
	ErrTensorNotFound = fusion.ErrTensorNotFound
	ErrHandleNotFound = fusion.ErrHandleNotFound
	ErrHandleNotInit  = fusion.ErrHandleNotInit
)

// NewContext creates an empty context.
func NewContext() *Context {
	return fusion.NewContext()
}

// NewTrace creates an empty trace for a kernel iterating over shapeRef.
func NewTrace(shapeRef tensor.Shape, settings FuseSettings) *Trace {
	return fusion.NewTrace(shapeRef, settings)
}

// NewRawHandle wraps a CPU tensor in a handle using its strides.
func NewRawHandle(raw *tensor.RawTensor) Handle {
	return fusion.NewRawHandle(raw)
}

// DefaultSettings enables every optimization.
func DefaultSettings() FuseSettings {
	return fusion.DefaultSettings()
}

// SettingsFromEnv returns DefaultSettings overridden by BORN_FUSION_* variables.
func SettingsFromEnv() FuseSettings {
	return fusion.SettingsFromEnv()
}

// ParsePrecision parses a precision name such as "f32" or "bf16".
func ParsePrecision(s string) (Precision, error) {
	return fusion.ParsePrecision(s)
}
