package fusion

import "github.com/born-ml/fusion/internal/ir"

// Context resolves the tensors of one fusion group to runtime handles.
//
// Tensors is keyed by relative id and holds the matching global descriptor;
// Handles is keyed by global id. Both are built upstream and must not be
// mutated concurrently while a group is being planned.
type Context struct {
	Tensors map[ir.TensorID]ir.TensorIr
	Handles *HandleContainer
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		Tensors: make(map[ir.TensorID]ir.TensorIr),
		Handles: NewHandleContainer(),
	}
}

// Register maps relative to global and stores the handle of global.
func (c *Context) Register(relative ir.TensorID, global ir.TensorIr, h Handle) {
	c.Tensors[relative] = global
	c.Handles.Register(global.ID, h)
}

// Resolve returns a copy of the global descriptor mapped to relative and the
// handle of that global tensor, fetched with the given status.
//
// The status must be the one of the relative graph: the global descriptor
// may carry the status of a later operation on the same tensor.
func (c *Context) Resolve(relative ir.TensorID, status ir.TensorStatus) (ir.TensorIr, Handle, error) {
	global, ok := c.Tensors[relative]
	if !ok {
		return ir.TensorIr{}, Handle{}, &ResolveError{ID: relative, Status: status, Err: ErrTensorNotFound}
	}

	h, err := c.Handles.GetHandle(global.ID, status)
	if err != nil {
		return ir.TensorIr{}, Handle{}, err
	}

	return global.Clone(), h, nil
}
