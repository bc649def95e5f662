// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fusion_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/born-ml/fusion/fusion"
	"github.com/born-ml/fusion/tensor"
)

func ExampleTrace_PlanInputs() {
	ctx := fusion.NewContext()

	lhs, _ := tensor.NewRaw(tensor.Shape{4, 4}, tensor.Float32)
	bias, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32)
	ctx.Register(1, fusion.TensorIr{ID: 11, Shape: tensor.Shape{4, 4}, Status: fusion.ReadWrite}, fusion.NewRawHandle(lhs))
	ctx.Register(2, fusion.TensorIr{ID: 12, Shape: tensor.Shape{4}, Status: fusion.ReadOnly}, fusion.NewRawHandle(bias))

	trace := fusion.NewTrace(tensor.Shape{4, 4}, fusion.DefaultSettings())
	trace.RegisterInput(fusion.TensorIr{ID: 1, Shape: tensor.Shape{4, 4}, Status: fusion.ReadWrite}, fusion.F32)
	trace.RegisterInput(fusion.TensorIr{ID: 2, Shape: tensor.Shape{4}, Status: fusion.ReadOnly}, fusion.F32)

	plan, err := trace.PlanInputs(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(plan.ReferenceInput)
	fmt.Println(len(plan.PotentialInplaces))
	fmt.Println(plan.HandleInputs[1].GlobalShape, plan.HandleInputs[1].Handle.Strides)
	// Output:
	// normal(input 0)
	// 1
	// [1 4] [4 1]
}

func TestPlanInputsMissingTensor(t *testing.T) {
	trace := fusion.NewTrace(tensor.Shape{2}, fusion.DefaultSettings())
	trace.RegisterInput(fusion.TensorIr{ID: 7, Shape: tensor.Shape{2}, Status: fusion.ReadOnly}, fusion.F32)

	plan, err := trace.PlanInputs(fusion.NewContext())
	if plan != nil {
		t.Errorf("expected no plan, got %+v", plan)
	}

	var rerr *fusion.ResolveError
	if !errors.As(err, &rerr) || !errors.Is(err, fusion.ErrTensorNotFound) {
		t.Fatalf("expected ResolveError wrapping ErrTensorNotFound, got %v", err)
	}
	if rerr.ID != 7 {
		t.Errorf("ResolveError.ID = %v, want t7", rerr.ID)
	}
}
