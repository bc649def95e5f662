package fusion

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

func TestRegisteredTensors(t *testing.T) {
	r := NewRegisteredTensors()

	assert.Equal(t, 0, r.Insert(F32, ir.TensorIr{ID: 5, Shape: tensor.Shape{2}}))
	assert.Equal(t, 1, r.Insert(F16, ir.TensorIr{ID: 3, Shape: tensor.Shape{4}}))
	assert.Equal(t, 0, r.Insert(I32, ir.TensorIr{ID: 5, Shape: tensor.Shape{9}}))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, ir.TensorID(3), got.Tensor.ID)
	assert.Equal(t, F16, got.Precision)

	got, ok = r.Get(0)
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{2}, got.Tensor.Shape, "duplicates keep the first descriptor")
	assert.Equal(t, F32, got.Precision)

	_, ok = r.Get(2)
	assert.False(t, ok)

	pos, ok := r.Position(3)
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
	_, ok = r.Position(4)
	assert.False(t, ok)

	var order []ir.TensorID
	r.Each(func(pos int, rt RegisteredTensor) {
		assert.Len(t, order, pos)
		order = append(order, rt.Tensor.ID)
	})
	assert.Equal(t, []ir.TensorID{5, 3}, order)
}

func TestRegisteredTensorsGetByPosition(t *testing.T) {
	r := NewRegisteredTensors()
	for id := ir.TensorID(100); id > 0; id-- {
		r.Insert(F32, ir.TensorIr{ID: id, Shape: tensor.Shape{int(id)}})
	}
	r.Insert(F16, ir.TensorIr{ID: 50, Shape: tensor.Shape{1}})
	require.Equal(t, 100, r.Len())

	for pos := 0; pos < r.Len(); pos++ {
		got, ok := r.Get(pos)
		require.True(t, ok)
		assert.Equal(t, ir.TensorID(100-pos), got.Tensor.ID)

		back, ok := r.Position(got.Tensor.ID)
		require.True(t, ok)
		assert.Equal(t, pos, back)
	}

	got, _ := r.Get(50)
	assert.Equal(t, F32, got.Precision, "duplicate kept its first registration")
	_, ok := r.Get(-1)
	assert.False(t, ok)
}

func TestRegisteredTensorsOwnShapes(t *testing.T) {
	r := NewRegisteredTensors()
	shape := tensor.Shape{2, 2}
	r.Insert(F32, ir.TensorIr{ID: 1, Shape: shape})

	shape[0] = 8
	got, _ := r.Get(0)
	assert.Equal(t, tensor.Shape{2, 2}, got.Tensor.Shape)
}

func TestTraceRank(t *testing.T) {
	trace := NewTrace(tensor.Shape{4, 4}, DefaultSettings())
	assert.Equal(t, 2, trace.Rank())

	trace.RegisterInput(ir.TensorIr{ID: 1, Shape: tensor.Shape{4}}, F32)
	assert.Equal(t, 2, trace.Rank())

	trace.RegisterInput(ir.TensorIr{ID: 2, Shape: tensor.Shape{1, 4, 4}}, F32)
	assert.Equal(t, 3, trace.Rank())
}

func TestTracePlanInputsMissingTensor(t *testing.T) {
	trace, ctx := newGroup(tensor.Shape{4}, DefaultSettings(), ro(1, 4))
	trace.RegisterInput(ir.TensorIr{ID: 2, Shape: tensor.Shape{4}, Status: ir.ReadOnly}, F32)

	p, err := trace.PlanInputs(ctx)

	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrTensorNotFound)
	assert.Contains(t, err.Error(), "plan fusion inputs")
}

func TestTracePlanInputsNotInitHandle(t *testing.T) {
	trace, ctx := newGroup(tensor.Shape{4}, DefaultSettings(), ro(1, 4))
	ctx.Handles.RegisterNotInit(globalID(1))

	_, err := trace.PlanInputs(ctx)

	assert.ErrorIs(t, err, ErrHandleNotInit)
}

func TestTracePlanInputsRepanicsOtherFailures(t *testing.T) {
	trace, ctx := newGroup(tensor.Shape{4, 4}, DefaultSettings(), rw(1, 4, 4))
	// Axis 2 does not exist on a rank-2 tensor.
	trace.AddView(SwapDimsView{Original: 1, Swapped: 2, Dims: [2]int{0, 2}})

	assert.Panics(t, func() {
		_, _ = trace.PlanInputs(ctx)
	})
}

func TestLaunchPlanLogValue(t *testing.T) {
	trace, ctx := newGroup(tensor.Shape{4, 4}, DefaultSettings(), rw(1, 4, 4), rw(2, 4, 4))
	p := plan(t, trace, ctx)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("planned", "plan", p)

	out := buf.String()
	assert.Contains(t, out, "plan.rank=2")
	assert.Contains(t, out, "plan.inputs=2")
	assert.Contains(t, out, `plan.reference="normal(input 0)"`)
	assert.Contains(t, out, "plan.inplace=\"[0 1]\"")
}

func TestLaunchPlanLogValueEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("planned", "plan", NewLaunchPlan(3))

	assert.Contains(t, buf.String(), "plan.reference=none")
}

func TestPrecision(t *testing.T) {
	for p := F64; p <= Bool; p++ {
		parsed, err := ParsePrecision(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePrecision("f8")
	assert.Error(t, err)

	assert.Equal(t, 4, Flex32.Size())
	assert.Equal(t, 2, BF16.Size())
	assert.Equal(t, "unknown", Precision(99).String())

	assert.Equal(t, F16, PrecisionOf(tensor.Float16))
	assert.Equal(t, U8, PrecisionOf(tensor.Uint8))
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Int64, tensor.Bool, tensor.BFloat16} {
		assert.Equal(t, dt.Size(), PrecisionOf(dt).Size(), dt.String())
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("BORN_FUSION_INPLACE", "false")
	t.Setenv("BORN_FUSION_BROADCAST", "")
	t.Setenv("BORN_FUSION_VECTORIZATION", "0")

	s := SettingsFromEnv()

	assert.False(t, s.Inplace)
	assert.True(t, s.Broadcast)
	assert.False(t, s.Vectorization)
	assert.True(t, s.OutputShapeUpdates)
}

func TestViewAndReferenceStrings(t *testing.T) {
	assert.Equal(t, "reshape(t1 -> t2 @3 [4 4])",
		ReshapeView{Original: 1, Reshaped: 2, ReshapePos: 3, ShapeRelative: tensor.Shape{4, 4}}.String())
	assert.Equal(t, "swap_dims(t1 -> t2 0<->1)", SwapDimsView{Original: 1, Swapped: 2, Dims: [2]int{0, 1}}.String())
	assert.Equal(t, "reshaped(op 3)", ReshapedReference{ReshapePos: 3}.String())
	assert.Equal(t, "swap_dims(input 1, 0<->1)", SwapDimsReference{OriginalPos: 1, Dims: [2]int{0, 1}}.String())
}
