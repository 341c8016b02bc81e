package result_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/result"
	"github.com/abhissng/synapse/utils/types"
)

func TestSuccess(t *testing.T) {
	value := []int{1, 2, 3}
	r := result.NewSuccess(&value)

	assert.True(t, r.IsSuccess())
	assert.False(t, r.IsError())
	assert.Nil(t, r.Error())

	val, err := r.Value()
	assert.Nil(t, err)
	assert.Equal(t, value, *val)
}

func TestFailure(t *testing.T) {
	testErr := blame.NewBasicBlame("test-error")
	r := result.NewFailure[int](testErr)

	assert.False(t, r.IsSuccess())
	assert.True(t, r.IsError())
	assert.Equal(t, testErr, r.Error())

	val, err := r.Value()
	assert.Nil(t, val)
	assert.Equal(t, testErr, err)
}

func TestFromKeepsPartialValue(t *testing.T) {
	partial := []string{"a"}
	r := result.From(&partial, blame.WorkerError(types.NewCallID(), "boom"))

	assert.True(t, r.IsError())
	val, err := r.Value()
	assert.Equal(t, partial, *val)
	assert.Error(t, err)

	ok := result.From(&partial, nil)
	assert.True(t, ok.IsSuccess())
}

func TestFailureUnwrapsCause(t *testing.T) {
	root := errors.New("root cause")
	r := result.NewFailure[string](blame.ModelForwardError(root))
	assert.ErrorIs(t, r.Error(), root)
}

func TestTaskResultCarriesCall(t *testing.T) {
	id := types.NewCallID()
	task := result.NewTask(id, 3, []int{7})
	out := []int{49}
	tr := result.NewTaskResult(task.CallID, task.ChunkID, result.NewSuccess(&out))

	assert.Equal(t, id, tr.CallID)
	assert.Equal(t, 3, tr.ChunkID)
	val, _ := tr.Output.Value()
	assert.Equal(t, out, *val)
}
