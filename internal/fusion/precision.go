package fusion

import (
	"fmt"
	"strings"

	"github.com/born-ml/fusion/internal/tensor"
)

// Precision is the element type a fused kernel uses for an input.
type Precision int

// Supported precisions.
const (
	F64 Precision = iota
	F32
	Flex32 // f32 storage, compute precision chosen by the kernel
	F16
	BF16
	I64
	I32
	I16
	I8
	U64
	U32
	U16
	U8
	Bool
)

var precisionNames = [...]string{
	F64:    "f64",
	F32:    "f32",
	Flex32: "flex32",
	F16:    "f16",
	BF16:   "bf16",
	I64:    "i64",
	I32:    "i32",
	I16:    "i16",
	I8:     "i8",
	U64:    "u64",
	U32:    "u32",
	U16:    "u16",
	U8:     "u8",
	Bool:   "bool",
}

// String implements fmt.Stringer.
func (p Precision) String() string {
	if p < 0 || int(p) >= len(precisionNames) {
		return "unknown"
	}
	return precisionNames[p]
}

// Size returns the byte size of one element.
func (p Precision) Size() int {
	switch p {
	case F64, I64, U64:
		return 8
	case F32, Flex32, I32, U32:
		return 4
	case F16, BF16, I16, U16:
		return 2
	case I8, U8, Bool:
		return 1
	default:
		panic("unknown precision")
	}
}

// ParsePrecision parses a precision name as printed by String.
func ParsePrecision(s string) (Precision, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range precisionNames {
		if n == name {
			return Precision(p), nil
		}
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}

// PrecisionOf returns the precision matching a tensor data type.
func PrecisionOf(dt tensor.DataType) Precision {
	switch dt {
	case tensor.Float64:
		return F64
	case tensor.Float32:
		return F32
	case tensor.Float16:
		return F16
	case tensor.BFloat16:
		return BF16
	case tensor.Int64:
		return I64
	case tensor.Int32:
		return I32
	case tensor.Int16:
		return I16
	case tensor.Int8:
		return I8
	case tensor.Uint64:
		return U64
	case tensor.Uint32:
		return U32
	case tensor.Uint16:
		return U16
	case tensor.Uint8:
		return U8
	case tensor.Bool:
		return Bool
	default:
		panic(fmt.Sprintf("no precision for data type %s", dt))
	}
}
