package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/x448/float16"
)

// tensorBuffer is a reference-counted shared buffer for Copy-on-Write semantics.
// This enables cheap cloning and inplace optimizations when refCount == 1.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// isUnique returns true if this buffer has only one reference (enables inplace ops).
func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is a CPU allocation described by a shape, strides and data type.
// Clones share the underlying reference-counted buffer.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DataType
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data
}

// Fill writes v, converted to the tensor's data type, into every element.
// Values are stored little-endian; integer types truncate toward zero and
// bfloat16 keeps the upper half of the float32 bit pattern. Fill fails when
// v does not fit the data type.
func (r *RawTensor) Fill(v float64) error {
	if !r.dtype.Holds(v) {
		return fmt.Errorf("fill value %v out of range for %s", v, r.dtype)
	}

	size := r.dtype.Size()
	elem := make([]byte, size)

	switch r.dtype {
	case Float64:
		binary.LittleEndian.PutUint64(elem, math.Float64bits(v))
	case Float32:
		binary.LittleEndian.PutUint32(elem, math.Float32bits(float32(v)))
	case Float16:
		binary.LittleEndian.PutUint16(elem, float16.Fromfloat32(float32(v)).Bits())
	case BFloat16:
		binary.LittleEndian.PutUint16(elem, uint16(math.Float32bits(float32(v))>>16))
	case Int64:
		binary.LittleEndian.PutUint64(elem, uint64(int64(v)))
	case Uint64:
		binary.LittleEndian.PutUint64(elem, uint64(v))
	case Int32:
		binary.LittleEndian.PutUint32(elem, uint32(int32(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(elem, uint32(v))
	case Int16:
		binary.LittleEndian.PutUint16(elem, uint16(int16(v)))
	case Uint16:
		binary.LittleEndian.PutUint16(elem, uint16(v))
	case Int8:
		elem[0] = byte(int8(v))
	case Uint8:
		elem[0] = uint8(v)
	case Bool:
		if v != 0 {
			elem[0] = 1
		}
	}

	data := r.buffer.data
	for off := 0; off+size <= len(data); off += size {
		copy(data[off:off+size], elem)
	}
	return nil
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
// The returned tensor has its own shape and stride slices.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
// When true, the buffer can be written in place.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// ForceNonUnique increases refCount to prevent inplace modifications.
// Returns a cleanup function that restores the previous count.
//
//	defer raw.ForceNonUnique()()
func (r *RawTensor) ForceNonUnique() func() {
	r.buffer.addRef()
	return func() {
		r.buffer.release()
	}
}
