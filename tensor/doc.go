// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the shapes, data types and reference counted CPU
// buffers that back fusion handles.
//
// # Basic Usage
//
//	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	if err != nil {
//	    return err
//	}
//	if err := raw.Fill(1); err != nil {
//	    return err
//	}
//
//	view := raw.Clone() // Shares the buffer
//	fmt.Println(raw.IsUnique()) // false while view is alive
//	view.Release()
//
// # Supported Data Types
//
//   - Float64, Float32, Float16, BFloat16
//   - Int64, Int32, Int16, Int8
//   - Uint64, Uint32, Uint16, Uint8
//   - Bool
//
// # Strides
//
// Buffers are row-major: Shape{2, 3, 4}.ComputeStrides() is [12, 4, 1].
// Shapes of lower rank are left-padded with ones by PadLeft, which is how
// fused kernels align every input to the working rank.
package tensor
