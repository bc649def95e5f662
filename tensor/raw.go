// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/fusion/internal/tensor"
)

// RawTensor is a typed, reference counted CPU buffer.
//
// RawTensor provides:
//   - Shape and type information via Shape(), Strides() and DType()
//   - Buffer sharing via Clone() and Release()
//   - Ownership queries via IsUnique()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	clone := raw.Clone()     // Shares buffer via reference counting
//	_ = raw.IsUnique()       // false until clone is released
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}
