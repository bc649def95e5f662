package fusion

import (
	"fmt"

	"github.com/born-ml/fusion/internal/ir"
	"github.com/born-ml/fusion/internal/tensor"
)

// TensorView is a non-materializing relationship between two tensors of a
// fusion group. It is either a ReshapeView or a SwapDimsView.
type TensorView interface {
	fmt.Stringer
	isTensorView()
}

// ReshapeView links a tensor to its reshaped form.
type ReshapeView struct {
	Reshaped      ir.TensorID
	Original      ir.TensorID
	ReshapePos    int          // Position of the reshape operation in the group
	ShapeRelative tensor.Shape // Shape of Reshaped, recorded when the view was registered
}

// SwapDimsView links a tensor to the tensor obtained by swapping two axes.
type SwapDimsView struct {
	Swapped  ir.TensorID
	Original ir.TensorID
	Dims     [2]int
}

func (ReshapeView) isTensorView()  {}
func (SwapDimsView) isTensorView() {}

func (v ReshapeView) String() string {
	return fmt.Sprintf("reshape(%s -> %s @%d %v)", v.Original, v.Reshaped, v.ReshapePos, []int(v.ShapeRelative))
}

func (v SwapDimsView) String() string {
	return fmt.Sprintf("swap_dims(%s -> %s %d<->%d)", v.Original, v.Swapped, v.Dims[0], v.Dims[1])
}
