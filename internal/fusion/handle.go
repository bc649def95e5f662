package fusion

import (
	"slices"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// Buffer is a device allocation owned by the handle tracker.
type Buffer interface {
	// CanMut reports whether no other live owner holds this allocation,
	// i.e. whether it can be written in place.
	CanMut() bool

	// Share returns a new owner of the same allocation.
	Share() Buffer
}

// RawBuffer adapts a CPU RawTensor to Buffer.
type RawBuffer struct {
	Raw *tensor.RawTensor
}

// CanMut implements Buffer.
func (b *RawBuffer) CanMut() bool {
	return b.Raw.IsUnique()
}

// Share implements Buffer. The returned buffer holds its own reference.
func (b *RawBuffer) Share() Buffer {
	return &RawBuffer{Raw: b.Raw.Clone()}
}

// Handle is a buffer plus the layout used to read it.
type Handle struct {
	Buffer  Buffer
	DType   tensor.DataType
	Strides []int
}

// NewRawHandle wraps raw in a handle using its strides.
func NewRawHandle(raw *tensor.RawTensor) Handle {
	return Handle{
		Buffer:  &RawBuffer{Raw: raw},
		DType:   raw.DType(),
		Strides: slices.Clone(raw.Strides()),
	}
}

type handleEntry struct {
	handle Handle
	init   bool
}

// HandleContainer maps global tensor ids to their handles.
type HandleContainer struct {
	handles map[ir.TensorID]handleEntry
}

// NewHandleContainer creates an empty container.
func NewHandleContainer() *HandleContainer {
	return &HandleContainer{handles: make(map[ir.TensorID]handleEntry)}
}

// Register stores h for id, replacing any previous handle.
func (c *HandleContainer) Register(id ir.TensorID, h Handle) {
	c.handles[id] = handleEntry{handle: h, init: true}
}

// RegisterNotInit declares id without data.
func (c *HandleContainer) RegisterNotInit(id ir.TensorID) {
	c.handles[id] = handleEntry{}
}

// Has reports whether id is known to the container.
func (c *HandleContainer) Has(id ir.TensorID) bool {
	_, ok := c.handles[id]
	return ok
}

// Len returns the number of tracked handles.
func (c *HandleContainer) Len() int {
	return len(c.handles)
}

// GetHandle returns the handle of id for the given access mode.
//
// ReadOnly shares the buffer and keeps the stored handle, so the result never
// reports CanMut while the container still owns a reference. ReadWrite moves
// the handle out of the container. The returned strides are never aliased
// with the stored handle.
func (c *HandleContainer) GetHandle(id ir.TensorID, status ir.TensorStatus) (Handle, error) {
	entry, ok := c.handles[id]
	if !ok {
		return Handle{}, &ResolveError{ID: id, Status: status, Err: ErrHandleNotFound}
	}
	if !entry.init {
		return Handle{}, &ResolveError{ID: id, Status: status, Err: ErrHandleNotInit}
	}

	switch status {
	case ir.ReadOnly:
		h := entry.handle
		h.Buffer = h.Buffer.Share()
		h.Strides = slices.Clone(h.Strides)
		return h, nil
	case ir.ReadWrite:
		delete(c.handles, id)
		return entry.handle, nil
	default:
		return Handle{}, &ResolveError{ID: id, Status: status, Err: ErrHandleNotInit}
	}
}
