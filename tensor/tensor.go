// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/fusion/internal/tensor"
)

// Type aliases for public API

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32  DataType = tensor.Float32
	Float64  DataType = tensor.Float64
	Int32    DataType = tensor.Int32
	Int64    DataType = tensor.Int64
	Uint8    DataType = tensor.Uint8
	Bool     DataType = tensor.Bool
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
	Int16    DataType = tensor.Int16
	Int8     DataType = tensor.Int8
	Uint16   DataType = tensor.Uint16
	Uint32   DataType = tensor.Uint32
	Uint64   DataType = tensor.Uint64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// ParseDataType parses a data type name such as "float32" or "bf16".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// BroadcastShapes returns the NumPy-style broadcast of a and b and whether a
// and b needed broadcasting.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
