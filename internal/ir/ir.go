// Package ir defines the tensor descriptors exchanged between fusion passes.
//
// The same TensorIr type describes a tensor both as seen inside a fusion group
// (relative) and as seen by the full execution timeline (global). The two are
// always held as separate values, even when they share an identity.
package ir

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/born-ml/fusion/internal/tensor"
)

// TensorID uniquely identifies a tensor in a graph.
type TensorID uint64

// String implements fmt.Stringer.
func (id TensorID) String() string {
	return "t" + strconv.FormatUint(uint64(id), 10)
}

// TensorStatus tells how a tensor may be accessed at a given point of a graph.
type TensorStatus int

// Tensor statuses.
const (
	// ReadOnly tensors are still needed after the current operation.
	ReadOnly TensorStatus = iota
	// ReadWrite tensors are read for the last time and may be overwritten.
	ReadWrite
	// NotInit tensors are declared but hold no data yet.
	NotInit
)

// String implements fmt.Stringer.
func (s TensorStatus) String() string {
	switch s {
	case ReadOnly:
		return "read_only"
	case ReadWrite:
		return "read_write"
	case NotInit:
		return "not_init"
	default:
		return "unknown"
	}
}

// ParseTensorStatus parses a status name as printed by String.
func ParseTensorStatus(s string) (TensorStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read_only", "readonly", "ro":
		return ReadOnly, nil
	case "read_write", "readwrite", "rw":
		return ReadWrite, nil
	case "not_init", "notinit":
		return NotInit, nil
	default:
		return 0, fmt.Errorf("unknown tensor status %q", s)
	}
}

// TensorIr describes a tensor: identity, shape, access status and data type.
type TensorIr struct {
	ID     TensorID
	Shape  tensor.Shape
	Status TensorStatus
	DType  tensor.DataType
}

// Clone returns a copy that does not share its shape with t.
func (t TensorIr) Clone() TensorIr {
	t.Shape = t.Shape.Clone()
	return t
}

// LogValue implements slog.LogValuer.
func (t TensorIr) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", t.ID.String()),
		slog.Any("shape", []int(t.Shape)),
		slog.String("status", t.Status.String()),
		slog.String("dtype", t.DType.String()),
	)
}
