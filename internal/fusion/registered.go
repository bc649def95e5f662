package fusion

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/fusion/internal/ir"
)

// RegisteredTensor is a fusion group input as seen by the relative graph.
type RegisteredTensor struct {
	Tensor    ir.TensorIr
	Precision Precision
}

type registeredEntry struct {
	pos int
	RegisteredTensor
}

// RegisteredTensors is the ordered, de-duplicated list of tensors read by a
// fusion group. Positions are assigned in registration order and never change.
type RegisteredTensors struct {
	om    *orderedmap.OrderedMap[ir.TensorID, registeredEntry]
	order []ir.TensorID // Indexed by position
}

// NewRegisteredTensors creates an empty list.
func NewRegisteredTensors() *RegisteredTensors {
	return &RegisteredTensors{om: orderedmap.New[ir.TensorID, registeredEntry]()}
}

// Insert registers t with precision p and returns its position.
// A tensor already registered keeps its first descriptor and position.
func (r *RegisteredTensors) Insert(p Precision, t ir.TensorIr) int {
	if entry, ok := r.om.Get(t.ID); ok {
		return entry.pos
	}
	pos := len(r.order)
	r.order = append(r.order, t.ID)
	r.om.Set(t.ID, registeredEntry{
		pos:              pos,
		RegisteredTensor: RegisteredTensor{Tensor: t.Clone(), Precision: p},
	})
	return pos
}

// Position returns the position of id, if registered.
func (r *RegisteredTensors) Position(id ir.TensorID) (int, bool) {
	entry, ok := r.om.Get(id)
	if !ok {
		return 0, false
	}
	return entry.pos, true
}

// Get returns the tensor registered at pos.
func (r *RegisteredTensors) Get(pos int) (RegisteredTensor, bool) {
	if pos < 0 || pos >= len(r.order) {
		return RegisteredTensor{}, false
	}
	entry, ok := r.om.Get(r.order[pos])
	return entry.RegisteredTensor, ok
}

// Len returns the number of registered tensors.
func (r *RegisteredTensors) Len() int {
	return r.om.Len()
}

// Each calls fn for every registered tensor in registration order.
func (r *RegisteredTensors) Each(fn func(pos int, t RegisteredTensor)) {
	for pair := r.om.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Value.pos, pair.Value.RegisteredTensor)
	}
}
