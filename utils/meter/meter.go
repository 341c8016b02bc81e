// Package meter accumulates running statistics of named training values.
package meter

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/abhissng/synapse/utils/codec"
	"github.com/abhissng/synapse/utils/helpers"
)

// Kind selects which statistic of a meter to report.
type Kind string

const (
	KindAvg Kind = "avg"
	KindVal Kind = "val"
	KindSum Kind = "sum"
)

// AverageMeter tracks the last value and the running mean of a series.
type AverageMeter struct {
	Val   float64
	Sum   float64
	Count int
	Avg   float64
}

// Reset clears the meter.
func (m *AverageMeter) Reset() {
	*m = AverageMeter{}
}

// Update records val observed n times.
func (m *AverageMeter) Update(val float64, n int) {
	m.Val = val
	m.Sum += val * float64(n)
	m.Count += n
	if m.Count > 0 {
		m.Avg = m.Sum / float64(m.Count)
	}
}

func (m *AverageMeter) get(kind Kind) float64 {
	switch kind {
	case KindVal:
		return m.Val
	case KindSum:
		return m.Sum
	default:
		return m.Avg
	}
}

// GroupMeters is a set of AverageMeters keyed by name. It is safe for concurrent use.
type GroupMeters struct {
	mu     sync.Mutex
	meters map[string]*AverageMeter
}

// NewGroupMeters returns an empty group.
func NewGroupMeters() *GroupMeters {
	return &GroupMeters{meters: make(map[string]*AverageMeter)}
}

// Reset drops every meter.
func (g *GroupMeters) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meters = make(map[string]*AverageMeter)
}

// Update records each value of updates with weight n.
func (g *GroupMeters) Update(updates map[string]float64, n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, v := range updates {
		g.meterLocked(k).Update(v, n)
	}
}

// UpdateOne records a single value with weight 1.
func (g *GroupMeters) UpdateOne(key string, v float64) {
	g.Update(map[string]float64{key: v}, 1)
}

// Updater is implemented by GroupMeters and MetricsGroupMeters.
type Updater interface {
	Update(updates map[string]float64, n int)
}

// Observe records a numeric value of any integer or float type with weight 1.
func Observe[N constraints.Integer | constraints.Float](u Updater, key string, v N) {
	u.Update(map[string]float64{key: float64(v)}, 1)
}

func (g *GroupMeters) meterLocked(key string) *AverageMeter {
	m, ok := g.meters[key]
	if !ok {
		m = &AverageMeter{}
		g.meters[key] = m
	}
	return m
}

// Values returns the chosen statistic of every meter.
func (g *GroupMeters) Values(kind Kind) map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]float64, len(g.meters))
	for k, m := range g.meters {
		out[k] = m.get(kind)
	}
	return out
}

// Val returns the last value of every meter.
func (g *GroupMeters) Val() map[string]float64 { return g.Values(KindVal) }

// Avg returns the running mean of every meter.
func (g *GroupMeters) Avg() map[string]float64 { return g.Values(KindAvg) }

// Sum returns the running sum of every meter.
func (g *GroupMeters) Sum() map[string]float64 { return g.Values(KindSum) }

// Format renders caption followed by each key/value in key order.
func Format(caption string, values map[string]float64, kvFormat, glue string) string {
	parts := []string{caption}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		parts = append(parts, fmt.Sprintf(kvFormat, k, values[k]))
	}
	return strings.Join(parts, glue)
}

// FormatSimple renders the meters on one line when compressed, or one per line.
func (g *GroupMeters) FormatSimple(caption string, kind Kind, compressed bool) string {
	if compressed {
		return Format(caption, g.Values(kind), "%s=%4f", " ")
	}
	return Format(caption, g.Values(kind), "\t%s = %4f", "\n")
}

// Dump appends the chosen statistic of every meter as one JSON line to path.
func (g *GroupMeters) Dump(path string, kind Kind) error {
	data, err := codec.Encode(g.Values(kind), codec.JSON)
	if err != nil {
		return fmt.Errorf("encode meters: %w", err)
	}
	if _, err := helpers.EnsurePath(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open meter dump %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write meter dump %s: %w", path, err)
	}
	return nil
}
