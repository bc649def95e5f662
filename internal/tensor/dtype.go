// Package tensor provides the shape, data type and buffer primitives shared by
// the fusion planner.
package tensor

import (
	"fmt"
	"math"
	"strings"
)

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
	Float16
	BFloat16
	Int16
	Int8
	Uint16
	Uint32
	Uint64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64:
		return 8
	case Float16, BFloat16, Int16, Uint16:
		return 2
	case Uint8, Int8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// integerRange is the half-open range [lo, hi) of each integer data type.
var integerRange = map[DataType][2]float64{
	Int8:   {math.MinInt8, 1 << 7},
	Uint8:  {0, 1 << 8},
	Int16:  {math.MinInt16, 1 << 15},
	Uint16: {0, 1 << 16},
	Int32:  {math.MinInt32, 1 << 31},
	Uint32: {0, 1 << 32},
	Int64:  {math.MinInt64, 1 << 63},
	Uint64: {0, 1 << 64},
}

// Holds reports whether v, truncated toward zero, can be stored in dt.
// Floating-point types accept any value; NaN only fits them.
func (dt DataType) Holds(v float64) bool {
	r, ok := integerRange[dt]
	if !ok {
		return dt != Bool || !math.IsNaN(v)
	}
	t := math.Trunc(v)
	return t >= r[0] && t < r[1]
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Int16:
		return "int16"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return "unknown"
	}
}

// ParseDataType parses a data type name as printed by String.
// The short forms f32, f16, bf16, i64, u8, ... are accepted as well.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64":
		return Float64, nil
	case "float16", "f16":
		return Float16, nil
	case "bfloat16", "bf16":
		return BFloat16, nil
	case "int64", "i64":
		return Int64, nil
	case "int32", "i32":
		return Int32, nil
	case "int16", "i16":
		return Int16, nil
	case "int8", "i8":
		return Int8, nil
	case "uint64", "u64":
		return Uint64, nil
	case "uint32", "u32":
		return Uint32, nil
	case "uint16", "u16":
		return Uint16, nil
	case "uint8", "u8":
		return Uint8, nil
	case "bool":
		return Bool, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}
