package result

import "github.com/abhissng/synapse/utils/types"

// Task is one unit of work queued on a worker pool. ChunkID is the position of the
// chunk inside the call identified by CallID.
type Task[T any] struct {
	CallID  types.CallID
	ChunkID int
	Input   T
}

// NewTask creates a new Task.
func NewTask[T any](callID types.CallID, chunkID int, input T) Task[T] {
	return Task[T]{CallID: callID, ChunkID: chunkID, Input: input}
}

// TaskResult wraps a Result with the call and chunk it belongs to.
type TaskResult[T any] struct {
	CallID  types.CallID
	ChunkID int
	Output  Result[T]
}

// NewTaskResult creates a new TaskResult.
func NewTaskResult[T any](callID types.CallID, chunkID int, output Result[T]) TaskResult[T] {
	return TaskResult[T]{CallID: callID, ChunkID: chunkID, Output: output}
}
