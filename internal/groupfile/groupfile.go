// Package groupfile loads fusion group descriptions from YAML.
//
// A description lists, per group, the tensors of the execution context, the
// inputs the group reads and the views between them:
//
//	settings:
//	  inplace: true
//	groups:
//	  - name: add_mul
//	    shape_ref: [4, 4]
//	    tensors:
//	      - {id: 1, global: 11, shape: [4, 4], status: read_write, dtype: f32}
//	      - {id: 2, shape: [4], shared: true}
//	    inputs:
//	      - {id: 1, status: read_write}
//	      - {id: 2}
//	    unhandled: []
//	    views:
//	      - reshape: {original: 1, reshaped: 3, pos: 2, shape: [16]}
//	      - swap_dims: {original: 2, swapped: 4, dims: [0, 1]}
//
// Omitted input fields default to the matching tensor entry.
package groupfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid fusion group description")

// File is a parsed description.
type File struct {
	Settings Settings `yaml:"settings"`
	Groups   []Group  `yaml:"groups"`
}

// Settings override fusion settings; nil fields keep the caller's value.
type Settings struct {
	Inplace       *bool `yaml:"inplace"`
	Broadcast     *bool `yaml:"broadcast"`
	Vectorization *bool `yaml:"vectorization"`
}

// Group describes one fusion group.
type Group struct {
	Name      string   `yaml:"name"`
	ShapeRef  []int    `yaml:"shape_ref"`
	Tensors   []Tensor `yaml:"tensors"`
	Inputs    []Input  `yaml:"inputs"`
	Unhandled []uint64 `yaml:"unhandled"`
	Views     []View   `yaml:"views"`
}

// Tensor is a context entry: a relative id mapped to a global tensor and its buffer.
type Tensor struct {
	ID     uint64   `yaml:"id"`
	Global *uint64  `yaml:"global"` // Defaults to ID
	Shape  []int    `yaml:"shape"`
	Status string   `yaml:"status"` // Global status, defaults to read_only
	DType  string   `yaml:"dtype"`  // Defaults to f32
	Shared bool     `yaml:"shared"` // Another owner holds the buffer
	Uninit bool     `yaml:"uninit"` // Declared without data
	Fill   *float64 `yaml:"fill"`
}

// Input is a registered input of the group, in the relative graph.
type Input struct {
	ID        uint64 `yaml:"id"`
	Status    string `yaml:"status"`
	Shape     []int  `yaml:"shape"`
	Precision string `yaml:"precision"`
}

// View holds exactly one of Reshape or SwapDims.
type View struct {
	Reshape  *ReshapeView  `yaml:"reshape"`
	SwapDims *SwapDimsView `yaml:"swap_dims"`
}

// ReshapeView mirrors fusion.ReshapeView.
type ReshapeView struct {
	Original uint64 `yaml:"original"`
	Reshaped uint64 `yaml:"reshaped"`
	Pos      int    `yaml:"pos"`
	Shape    []int  `yaml:"shape"`
}

// SwapDimsView mirrors fusion.SwapDimsView.
type SwapDimsView struct {
	Original uint64 `yaml:"original"`
	Swapped  uint64 `yaml:"swapped"`
	Dims     [2]int `yaml:"dims"`
}

// LoadFile reads and validates the description at path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("open group file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads and validates a description.
func Load(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode group file: %w", err)
	}

	for i := range file.Groups {
		if err := file.Groups[i].validate(); err != nil {
			return nil, fmt.Errorf("group %d (%s): %w", i, file.Groups[i].Name, err)
		}
	}
	return &file, nil
}

// Apply returns base overridden by the non-nil fields of s.
func (s Settings) Apply(base fusion.FuseSettings) fusion.FuseSettings {
	if s.Inplace != nil {
		base.Inplace = *s.Inplace
	}
	if s.Broadcast != nil {
		base.Broadcast = *s.Broadcast
	}
	if s.Vectorization != nil {
		base.Vectorization = *s.Vectorization
	}
	return base
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (g *Group) validate() error {
	if err := tensor.Shape(g.ShapeRef).Validate(); err != nil {
		return invalidf("shape_ref: %v", err)
	}

	tensors := make(map[uint64]Tensor, len(g.Tensors))
	for _, t := range g.Tensors {
		if _, dup := tensors[t.ID]; dup {
			return invalidf("tensor %d listed twice", t.ID)
		}
		if err := tensor.Shape(t.Shape).Validate(); err != nil {
			return invalidf("tensor %d: %v", t.ID, err)
		}
		if _, err := t.status(); err != nil {
			return invalidf("tensor %d: %v", t.ID, err)
		}
		dtype, err := t.dtype()
		if err != nil {
			return invalidf("tensor %d: %v", t.ID, err)
		}
		if t.Fill != nil && !dtype.Holds(*t.Fill) {
			return invalidf("tensor %d: fill value %v out of range for %s", t.ID, *t.Fill, dtype)
		}
		tensors[t.ID] = t
	}

	// Views and unhandled tensors are re-derived by the kernel, so only the
	// remaining inputs are bound as operands of the reference shape.
	derived := make(map[uint64]bool, 2*len(g.Views)+len(g.Unhandled))
	for _, v := range g.Views {
		if v.Reshape != nil {
			derived[v.Reshape.Original] = true
			derived[v.Reshape.Reshaped] = true
		}
		if v.SwapDims != nil {
			derived[v.SwapDims.Original] = true
			derived[v.SwapDims.Swapped] = true
		}
	}
	for _, id := range g.Unhandled {
		derived[id] = true
	}

	shapes := make(map[uint64][]int, len(g.Inputs))
	for _, in := range g.Inputs {
		if _, dup := shapes[in.ID]; dup {
			return invalidf("input %d listed twice", in.ID)
		}
		t, ok := tensors[in.ID]
		if !ok {
			return invalidf("input %d has no tensor entry", in.ID)
		}
		relative, _, err := in.resolve(t)
		if err != nil {
			return invalidf("input %d: %v", in.ID, err)
		}
		if err := relative.Shape.Validate(); err != nil {
			return invalidf("input %d: %v", in.ID, err)
		}
		if !derived[in.ID] {
			if err := broadcastsTo(relative.Shape, g.ShapeRef); err != nil {
				return invalidf("input %d: %v", in.ID, err)
			}
		}
		shapes[in.ID] = relative.Shape
	}

	for i, v := range g.Views {
		switch {
		case v.Reshape != nil && v.SwapDims != nil:
			return invalidf("view %d sets both reshape and swap_dims", i)
		case v.Reshape != nil:
			if err := tensor.Shape(v.Reshape.Shape).Validate(); err != nil {
				return invalidf("view %d: %v", i, err)
			}
		case v.SwapDims != nil:
			a, b := v.SwapDims.Dims[0], v.SwapDims.Dims[1]
			if a < 0 || b < 0 {
				return invalidf("view %d: negative axis", i)
			}
			if shape, ok := shapes[v.SwapDims.Original]; ok && (a >= len(shape) || b >= len(shape)) {
				return invalidf("view %d: axes (%d, %d) out of range for rank %d", i, a, b, len(shape))
			}
		default:
			return invalidf("view %d is empty", i)
		}
	}
	return nil
}

// broadcastsTo checks that shape can be read while iterating over ref.
func broadcastsTo(shape, ref tensor.Shape) error {
	out, _, err := tensor.BroadcastShapes(shape, ref)
	if err != nil {
		return err
	}
	if !out.Equal(ref) {
		return fmt.Errorf("shape %v does not broadcast to shape_ref %v", []int(shape), []int(ref))
	}
	return nil
}

func (t Tensor) status() (ir.TensorStatus, error) {
	if t.Status == "" {
		return ir.ReadOnly, nil
	}
	return ir.ParseTensorStatus(t.Status)
}

func (t Tensor) dtype() (tensor.DataType, error) {
	if t.DType == "" {
		return tensor.Float32, nil
	}
	return tensor.ParseDataType(t.DType)
}

func (t Tensor) globalID() ir.TensorID {
	if t.Global != nil {
		return ir.TensorID(*t.Global)
	}
	return ir.TensorID(t.ID)
}

// resolve builds the relative descriptor and precision of an input backed by t.
func (in Input) resolve(t Tensor) (ir.TensorIr, fusion.Precision, error) {
	dtype, err := t.dtype()
	if err != nil {
		return ir.TensorIr{}, 0, err
	}

	status, err := t.status()
	if err != nil {
		return ir.TensorIr{}, 0, err
	}
	if in.Status != "" {
		if status, err = ir.ParseTensorStatus(in.Status); err != nil {
			return ir.TensorIr{}, 0, err
		}
	}

	shape := tensor.Shape(t.Shape).Clone()
	if len(in.Shape) > 0 {
		shape = tensor.Shape(in.Shape).Clone()
	}

	precision := fusion.PrecisionOf(dtype)
	if in.Precision != "" {
		if precision, err = fusion.ParsePrecision(in.Precision); err != nil {
			return ir.TensorIr{}, 0, err
		}
	}

	return ir.TensorIr{ID: ir.TensorID(in.ID), Shape: shape, Status: status, DType: dtype}, precision, nil
}

// Build allocates a fresh context for the group and records its trace.
// Every call returns new buffers, so the results can be planned independently.
func (g *Group) Build(settings fusion.FuseSettings) (*fusion.Context, *fusion.Trace, error) {
	ctx := fusion.NewContext()
	tensors := make(map[uint64]Tensor, len(g.Tensors))

	for _, t := range g.Tensors {
		dtype, err := t.dtype()
		if err != nil {
			return nil, nil, err
		}
		status, err := t.status()
		if err != nil {
			return nil, nil, err
		}

		global := ir.TensorIr{ID: t.globalID(), Shape: tensor.Shape(t.Shape).Clone(), Status: status, DType: dtype}
		tensors[t.ID] = t

		if t.Uninit {
			ctx.Tensors[ir.TensorID(t.ID)] = global
			ctx.Handles.RegisterNotInit(global.ID)
			continue
		}

		raw, err := tensor.NewRaw(t.Shape, dtype)
		if err != nil {
			return nil, nil, fmt.Errorf("allocate tensor %d: %w", t.ID, err)
		}
		if t.Fill != nil {
			if err := raw.Fill(*t.Fill); err != nil {
				return nil, nil, fmt.Errorf("tensor %d: %w", t.ID, err)
			}
		}
		if t.Shared {
			// The extra owner lives as long as the buffer.
			_ = raw.ForceNonUnique()
		}

		ctx.Register(ir.TensorID(t.ID), global, fusion.NewRawHandle(raw))
	}

	trace := fusion.NewTrace(g.ShapeRef, settings)
	for _, in := range g.Inputs {
		relative, precision, err := in.resolve(tensors[in.ID])
		if err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", in.ID, err)
		}
		trace.RegisterInput(relative, precision)
	}

	for _, id := range g.Unhandled {
		trace.MarkUnhandled(ir.TensorID(id))
	}

	for _, v := range g.Views {
		switch {
		case v.Reshape != nil:
			trace.AddView(fusion.ReshapeView{
				Original:      ir.TensorID(v.Reshape.Original),
				Reshaped:      ir.TensorID(v.Reshape.Reshaped),
				ReshapePos:    v.Reshape.Pos,
				ShapeRelative: tensor.Shape(v.Reshape.Shape).Clone(),
			})
		case v.SwapDims != nil:
			trace.AddView(fusion.SwapDimsView{
				Original: ir.TensorID(v.SwapDims.Original),
				Swapped:  ir.TensorID(v.SwapDims.Swapped),
				Dims:     v.SwapDims.Dims,
			})
		}
	}

	return ctx, trace, nil
}
