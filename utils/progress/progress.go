// Package progress draws a single-line ASCII progress bar on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultWidth       = 80
	defaultRefreshRate = 10 // redraws per second
)

// Bar is a tqdm-style progress bar. It is safe for concurrent use.
type Bar struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	n        int
	desc     string
	width    int
	start    time.Time
	limiter  *rate.Limiter
	lastLen  int
	closed   bool
	disabled bool
}

// Option configures a Bar.
type Option func(*Bar)

// WithWriter sets the output; defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(b *Bar) {
		b.w = w
	}
}

// WithDescription sets the initial description.
func WithDescription(desc string) Option {
	return func(b *Bar) {
		b.desc = desc
	}
}

// WithWidth sets the number of terminal columns the bar may use.
func WithWidth(width int) Option {
	return func(b *Bar) {
		if width > 0 {
			b.width = width
		}
	}
}

// WithRefreshRate caps redraws per second. Zero or less redraws on every update.
func WithRefreshRate(perSecond float64) Option {
	return func(b *Bar) {
		if perSecond <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithDisabled turns the bar into a no-op counter.
func WithDisabled(disabled bool) Option {
	return func(b *Bar) {
		b.disabled = disabled
	}
}

// New creates a bar for total steps. A total of zero or less means unknown.
func New(total int, opts ...Option) *Bar {
	b := &Bar{
		w:       os.Stderr,
		total:   total,
		width:   terminalWidth(),
		start:   time.Now(),
		limiter: rate.NewLimiter(rate.Limit(defaultRefreshRate), 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// terminalWidth honours $COLUMNS, falling back to 80 columns.
func terminalWidth() int {
	var cols int
	if _, err := fmt.Sscanf(os.Getenv("COLUMNS"), "%d", &cols); err == nil && cols > 0 {
		return cols
	}
	return defaultWidth
}

// Update advances the bar by n steps.
func (b *Bar) Update(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.n += n
	if b.limiter.Allow() || (b.total > 0 && b.n >= b.total) {
		b.render()
	}
}

// SetDescription replaces the text shown before the bar.
func (b *Bar) SetDescription(desc string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.desc = desc
}

// N returns the number of completed steps.
func (b *Bar) N() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Close draws the final state and ends the line.
func (b *Bar) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.render()
	if !b.disabled {
		_, _ = io.WriteString(b.w, "\n")
	}
	b.closed = true
}

func (b *Bar) render() {
	if b.disabled {
		return
	}
	line := b.format(time.Since(b.start))
	pad := ""
	if b.lastLen > len(line) {
		pad = strings.Repeat(" ", b.lastLen-len(line))
	}
	b.lastLen = len(line)
	_, _ = io.WriteString(b.w, "\r"+line+pad)
}

// format renders "desc: 45%|####      | 45/100 [00:03<00:04, 12.30it/s]".
func (b *Bar) format(elapsed time.Duration) string {
	prefix := ""
	if b.desc != "" {
		prefix = b.desc + ": "
	}

	speed := 0.0
	if elapsed > 0 {
		speed = float64(b.n) / elapsed.Seconds()
	}

	if b.total <= 0 {
		return fmt.Sprintf("%s%dit [%s, %.2fit/s]", prefix, b.n, formatDuration(elapsed), speed)
	}

	remaining := time.Duration(0)
	if speed > 0 && b.n < b.total {
		remaining = time.Duration(float64(b.total-b.n) / speed * float64(time.Second))
	}
	frac := float64(b.n) / float64(b.total)
	if frac > 1 {
		frac = 1
	}
	suffix := fmt.Sprintf("| %d/%d [%s<%s, %.2fit/s]", b.n, b.total, formatDuration(elapsed), formatDuration(remaining), speed)
	head := fmt.Sprintf("%s%3d%%|", prefix, int(frac*100))

	barWidth := b.width - len(head) - len(suffix)
	if barWidth < 1 {
		return head + suffix[2:]
	}
	filled := int(frac * float64(barWidth))
	return head + strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled) + suffix
}

func formatDuration(d time.Duration) string {
	s := int(d.Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
