package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatKnownTotal(t *testing.T) {
	b := New(100, WithWidth(60), WithDescription("train"), WithWriter(&bytes.Buffer{}))
	b.n = 50

	line := b.format(5 * time.Second)
	assert.True(t, strings.HasPrefix(line, "train:  50%|"), line)
	assert.Contains(t, line, "50/100 [00:05<00:05, 10.00it/s]")
	assert.Len(t, line, 60)
}

func TestFormatUnknownTotal(t *testing.T) {
	b := New(0, WithWriter(&bytes.Buffer{}))
	b.n = 7
	assert.Equal(t, "7it [01:02, 0.11it/s]", b.format(62*time.Second))
}

func TestUpdateAndCloseWrite(t *testing.T) {
	var buf bytes.Buffer
	b := New(3, WithWriter(&buf), WithRefreshRate(0))
	b.Update(1)
	b.SetDescription("loss=0.5")
	b.Update(2)
	b.Close()
	b.Update(1)

	assert.Equal(t, 3, b.N())
	out := buf.String()
	assert.Contains(t, out, "loss=0.5: 100%|")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestDisabledBarWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	b := New(2, WithWriter(&buf), WithDisabled(true))
	b.Update(2)
	b.Close()
	assert.Empty(t, buf.String())
	assert.Equal(t, 2, b.N())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1:01:01", formatDuration(3661*time.Second))
}
