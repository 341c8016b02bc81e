package workerpool

import (
	"fmt"

	"github.com/abhissng/synapse/utils/progress"
)

// WithProgress draws a progress bar while the call runs, advancing it once per
// item and showing "<desc> (iter=<index>)".
func WithProgress(desc string, opts ...progress.Option) MapOption {
	return func(c *mapConfig) {
		c.progressDesc = &desc
		c.progressOpts = opts
	}
}

func progressCallback(next func(int, any), bar *progress.Bar, desc string) func(int, any) {
	return func(i int, v any) {
		if next != nil {
			next(i, v)
		}
		if desc != "" {
			bar.SetDescription(fmt.Sprintf("%s (iter=%d)", desc, i))
		}
		bar.Update(1)
	}
}
