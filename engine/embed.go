package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// embed prints the state of the prepared run and waits for a line on stdin.
func (e *Engine) embed() error {
	params := e.model.NamedParameters()
	fmt.Fprintf(e.stdout, "Run %s (%s)\n", e.runName, e.runID)
	fmt.Fprintf(e.stdout, "  model: %v\n", e.model)
	for _, name := range slices.Sorted(maps.Keys(params)) {
		fmt.Fprintf(e.stdout, "    %s %v\n", name, params[name].Shape())
	}
	fmt.Fprintf(e.stdout, "  optimizer: lr=%g\n", e.trainer.Optimizer().LearningRate())
	fmt.Fprintf(e.stdout, "  iterations per epoch: %d, start epoch: %d\n", e.nrIters, e.startEpoch)
	fmt.Fprintln(e.stdout, "Press Enter to start training.")

	if _, err := bufio.NewReader(e.stdin).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("embed: %w", err)
	}
	return nil
}
