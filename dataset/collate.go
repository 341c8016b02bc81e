package dataset

import (
	"fmt"

	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/train"
)

// Collate merges examples into one batch. Tensors are stacked along a new
// leading dim, ints become an IntTensor, floats a 1-D Tensor; any other value
// is gathered into a []any.
func Collate(examples []train.FeedDict) (train.FeedDict, error) {
	if len(examples) == 0 {
		return train.FeedDict{}, nil
	}
	batch := make(train.FeedDict, len(examples[0]))
	for key, first := range examples[0] {
		switch first.(type) {
		case *tensor.Tensor:
			ts := make([]*tensor.Tensor, len(examples))
			for i, ex := range examples {
				t, ok := ex[key].(*tensor.Tensor)
				if !ok {
					return nil, fmt.Errorf("collate %q: example %d is %T", key, i, ex[key])
				}
				ts[i] = t
			}
			batch[key] = tensor.Stack(ts)
		case int:
			out := make([]int, len(examples))
			for i, ex := range examples {
				v, ok := ex[key].(int)
				if !ok {
					return nil, fmt.Errorf("collate %q: example %d is %T", key, i, ex[key])
				}
				out[i] = v
			}
			batch[key] = tensor.IntFromSlice(out)
		case float64:
			out := make([]float64, len(examples))
			for i, ex := range examples {
				v, ok := ex[key].(float64)
				if !ok {
					return nil, fmt.Errorf("collate %q: example %d is %T", key, i, ex[key])
				}
				out[i] = v
			}
			batch[key] = tensor.FromSlice(out, len(out))
		default:
			out := make([]any, len(examples))
			for i, ex := range examples {
				out[i] = ex[key]
			}
			batch[key] = out
		}
	}
	return batch, nil
}
