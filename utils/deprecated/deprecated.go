// Package deprecated reports calls to deprecated functions once per process.
package deprecated

import (
	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/cache/lruCache"
)

// DefaultCapacity bounds the number of remembered names.
const DefaultCapacity = 256

// Notifier remembers which deprecated names were already reported.
type Notifier struct {
	logger *log.Log
	seen   *lruCache.LRUCache[string, struct{}]
}

// NewNotifier returns a notifier that logs through logger.
func NewNotifier(logger *log.Log, capacity int) (*Notifier, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	seen, err := lruCache.NewLRUCache[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Notifier{logger: logger, seen: seen}, nil
}

// Notify logs doc as a warning the first time name is seen and reports
// whether it did.
func (n *Notifier) Notify(name, doc string) bool {
	if n.seen.ContainsOrAdd(name, struct{}{}) {
		return false
	}
	n.logger.Warn("Deprecated", log.String("name", name), log.String("doc", doc))
	return true
}

// Wrap returns fn with a deprecation notice on its first call.
func Wrap[A, R any](n *Notifier, name, doc string, fn func(A) R) func(A) R {
	return func(a A) R {
		n.Notify(name, doc)
		return fn(a)
	}
}
