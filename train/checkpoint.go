package train

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/optim"
	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/utils/codec"
	"github.com/abhissng/synapse/utils/helpers"
)

// ParamState is the serialised form of one parameter.
type ParamState struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Extra is the run bookkeeping stored next to the weights.
type Extra struct {
	Epoch    int    `json:"epoch"`
	MetaFile string `json:"meta_file,omitempty"`
}

// Checkpoint is the on-disk document written by SaveCheckpoint.
type Checkpoint struct {
	Model     map[string]ParamState `json:"model"`
	Optimizer *optim.State          `json:"optimizer,omitempty"`
	Extra     *Extra                `json:"extra,omitempty"`
}

// StateDict snapshots the named parameters of m.
func StateDict(m Model) map[string]ParamState {
	out := make(map[string]ParamState)
	for name, p := range m.NamedParameters() {
		out[name] = ParamState{Shape: p.Shape(), Data: append([]float64(nil), p.Data()...)}
	}
	return out
}

// LoadStateDict copies matching entries of state into m. Missing and unexpected
// keys are logged; a shape mismatch is an error.
func LoadStateDict(m Model, state map[string]ParamState, logger *log.Log) error {
	params := m.NamedParameters()

	var missing, unexpected []string
	for _, name := range slices.Sorted(maps.Keys(params)) {
		s, ok := state[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		p := params[name]
		if !tensor.ShapeEqual(p.Shape(), s.Shape) || len(s.Data) != p.Size() {
			return fmt.Errorf("parameter %s: checkpoint shape %v, model shape %v", name, s.Shape, p.Shape())
		}
		copy(p.Data(), s.Data)
	}
	for _, name := range slices.Sorted(maps.Keys(state)) {
		if _, ok := params[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}

	if len(unexpected) > 0 {
		logger.Warn("Unexpected key(s) in state dict", log.Strings("keys", unexpected))
	}
	if len(missing) > 0 {
		logger.Warn("Missing key(s) in state dict", log.Strings("keys", missing))
	}
	return nil
}

// WriteCheckpoint encodes ckpt as MessagePack at path, creating parent directories.
func WriteCheckpoint(path string, ckpt *Checkpoint) error {
	data, err := codec.Encode(ckpt, codec.MessagePack)
	if err != nil {
		return blame.CheckpointError("save", path, blame.MarshalError(codec.MessagePack, err))
	}
	if _, err := helpers.EnsurePath(filepath.Dir(path)); err != nil {
		return blame.CheckpointError("save", path, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return blame.CheckpointError("save", path, err)
	}
	return nil
}

// ReadCheckpoint decodes a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, blame.CheckpointError("load", path, blame.FileNotFoundError(path, err))
	}
	ckpt, err := codec.Decode[Checkpoint](data, codec.MessagePack)
	if err != nil {
		return nil, blame.CheckpointError("load", path, blame.UnMarshalError(codec.MessagePack, err))
	}
	return &ckpt, nil
}
