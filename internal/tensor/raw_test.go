package tensor

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewRaw(t *testing.T) {
	shape := Shape{3, 4}
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(shape) {
		t.Errorf("Shape = %v, want %v", raw.Shape(), shape)
	}

	if raw.DType() != Float32 {
		t.Errorf("DType = %v, want Float32", raw.DType())
	}

	if raw.NumElements() != 12 {
		t.Errorf("NumElements = %d, want 12", raw.NumElements())
	}

	if raw.ByteSize() != 48 { // 12 * 4 bytes
		t.Errorf("ByteSize = %d, want 48", raw.ByteSize())
	}

	strides := raw.Strides()
	if len(strides) != 2 || strides[0] != 4 || strides[1] != 1 {
		t.Errorf("Strides = %v, want [4 1]", strides)
	}
}

func TestNewRawAllTypes(t *testing.T) {
	types := []struct {
		dtype       DataType
		elementSize int
	}{
		{Float32, 4},
		{Float64, 8},
		{Float16, 2},
		{BFloat16, 2},
		{Int32, 4},
		{Int64, 8},
		{Int16, 2},
		{Int8, 1},
		{Uint8, 1},
		{Uint16, 2},
		{Uint32, 4},
		{Uint64, 8},
		{Bool, 1},
	}

	shape := Shape{2, 3}
	for _, tt := range types {
		raw, err := NewRaw(shape, tt.dtype)
		if err != nil {
			t.Fatalf("NewRaw(%v, %v) failed: %v", shape, tt.dtype, err)
		}

		expectedByteSize := 6 * tt.elementSize // 2*3 elements
		if raw.ByteSize() != expectedByteSize {
			t.Errorf("ByteSize = %d, want %d for type %v", raw.ByteSize(), expectedByteSize, tt.dtype)
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	invalidShapes := []Shape{
		{0},
		{-1},
		{2, 0},
		{2, -3},
	}

	for _, shape := range invalidShapes {
		_, err := NewRaw(shape, Float32)
		if err == nil {
			t.Errorf("NewRaw(%v) should fail but didn't", shape)
		}
	}
}

func TestRawTensorReferenceCounting(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32)

	if !raw.IsUnique() {
		t.Error("New tensor should be unique")
	}

	clone1 := raw.Clone()
	if raw.IsUnique() || clone1.IsUnique() {
		t.Error("After Clone(), neither tensor should be unique")
	}

	clone2 := raw.Clone()
	if raw.IsUnique() || clone1.IsUnique() || clone2.IsUnique() {
		t.Error("With 3 references, none should be unique")
	}

	clone1.Release()
	clone2.Release()

	if !raw.IsUnique() {
		t.Error("After releasing every clone, the original should be unique again")
	}
}

func TestRawTensorCloneOwnsStrides(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32)
	clone := raw.Clone()
	defer clone.Release()

	clone.Strides()[0] = 99
	if raw.Strides()[0] != 3 {
		t.Errorf("Clone shares its stride slice with the original: %v", raw.Strides())
	}
}

func TestRawTensorForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32)

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("After ForceNonUnique(), IsUnique() should return false")
	}

	restore()
	if !raw.IsUnique() {
		t.Error("After the cleanup func, IsUnique() should return true")
	}
}

func TestRawTensorFill(t *testing.T) {
	f32, _ := NewRaw(Shape{3}, Float32)
	mustFill(t, f32, 1.5)
	for i := 0; i < 3; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(f32.Data()[i*4:]))
		if got != 1.5 {
			t.Errorf("float32 element %d = %v, want 1.5", i, got)
		}
	}

	f16, _ := NewRaw(Shape{2}, Float16)
	mustFill(t, f16, 1.0)
	if got := binary.LittleEndian.Uint16(f16.Data()[2:]); got != 0x3c00 {
		t.Errorf("float16 bits = %#x, want 0x3c00", got)
	}

	bf16, _ := NewRaw(Shape{2}, BFloat16)
	mustFill(t, bf16, 1.0)
	if got := binary.LittleEndian.Uint16(bf16.Data()); got != 0x3f80 {
		t.Errorf("bfloat16 bits = %#x, want 0x3f80", got)
	}

	i64, _ := NewRaw(Shape{2}, Int64)
	mustFill(t, i64, -2)
	if got := int64(binary.LittleEndian.Uint64(i64.Data()[8:])); got != -2 {
		t.Errorf("int64 element = %d, want -2", got)
	}

	b, _ := NewRaw(Shape{4}, Bool)
	mustFill(t, b, 1)
	for i, v := range b.Data() {
		if v != 1 {
			t.Errorf("bool element %d = %d, want 1", i, v)
		}
	}
}

func mustFill(t *testing.T, raw *RawTensor, v float64) {
	t.Helper()
	if err := raw.Fill(v); err != nil {
		t.Fatalf("Fill(%v) on %s failed: %v", v, raw.DType(), err)
	}
}

func TestRawTensorFillUnsigned(t *testing.T) {
	u8, _ := NewRaw(Shape{2}, Uint8)
	mustFill(t, u8, 200)
	if got := u8.Data()[1]; got != 200 {
		t.Errorf("uint8 element = %d, want 200", got)
	}

	u16, _ := NewRaw(Shape{2}, Uint16)
	mustFill(t, u16, 60000)
	if got := binary.LittleEndian.Uint16(u16.Data()[2:]); got != 60000 {
		t.Errorf("uint16 element = %d, want 60000", got)
	}

	u32, _ := NewRaw(Shape{2}, Uint32)
	mustFill(t, u32, 3e9)
	if got := binary.LittleEndian.Uint32(u32.Data()[4:]); got != 3000000000 {
		t.Errorf("uint32 element = %d, want 3000000000", got)
	}

	u64, _ := NewRaw(Shape{2}, Uint64)
	mustFill(t, u64, 1.5e19)
	if got := binary.LittleEndian.Uint64(u64.Data()[8:]); got != 15000000000000000000 {
		t.Errorf("uint64 element = %d, want 15000000000000000000", got)
	}

	i8, _ := NewRaw(Shape{1}, Int8)
	mustFill(t, i8, -100.7)
	if got := int8(i8.Data()[0]); got != -100 {
		t.Errorf("int8 element = %d, want -100", got)
	}
}

func TestRawTensorFillOutOfRange(t *testing.T) {
	tests := []struct {
		dtype DataType
		v     float64
	}{
		{Uint8, 256},
		{Uint8, -1},
		{Int8, 128},
		{Int8, -129},
		{Uint16, 65536},
		{Int16, 40000},
		{Uint32, 5e9},
		{Int32, 3e9},
		{Uint64, 2e19},
		{Int64, 1e19},
		{Int32, math.NaN()},
		{Bool, math.NaN()},
	}

	for _, tt := range tests {
		raw, err := NewRaw(Shape{2}, tt.dtype)
		if err != nil {
			t.Fatalf("NewRaw failed: %v", err)
		}
		if err := raw.Fill(tt.v); err == nil {
			t.Errorf("Fill(%v) on %s should fail", tt.v, tt.dtype)
		}
		for i, b := range raw.Data() {
			if b != 0 {
				t.Errorf("Fill(%v) on %s wrote byte %d", tt.v, tt.dtype, i)
			}
		}
	}
}

func TestDataTypeHolds(t *testing.T) {
	if !Float16.Holds(math.Inf(1)) || !Float32.Holds(math.NaN()) {
		t.Error("floating-point types should hold any value")
	}
	if !Uint8.Holds(255.9) {
		t.Error("255.9 truncates to 255 and should fit uint8")
	}
	if Uint8.Holds(256) || Uint8.Holds(-1) {
		t.Error("256 and -1 should not fit uint8")
	}
	if !Int64.Holds(math.MinInt64) || Int64.Holds(1<<63) {
		t.Error("int64 range should be [MinInt64, 2^63)")
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"float32", Float32},
		{"f16", Float16},
		{"BF16", BFloat16},
		{" i64 ", Int64},
		{"u8", Uint8},
		{"bool", Bool},
	}

	for _, tt := range tests {
		got, err := ParseDataType(tt.in)
		if err != nil {
			t.Errorf("ParseDataType(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDataType(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if back, _ := ParseDataType(got.String()); back != got {
			t.Errorf("ParseDataType(%q.String()) = %v", got, back)
		}
	}

	if _, err := ParseDataType("complex64"); err == nil {
		t.Error("ParseDataType(complex64) should fail")
	}
}
