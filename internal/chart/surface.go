package chart

import (
	"bytes"
	"io"
	"sync"
)

// Buffer is an in-memory Surface holding the latest SVG paint.
type Buffer struct {
	mu       sync.Mutex
	chart    *Chart
	content  []byte
	paints   int
	detached bool
}

// NewBuffer returns an attached, empty buffer surface.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Paint implements Surface.
func (b *Buffer) Paint(c *Chart) error {
	if b == nil {
		return ErrInvalidSurface
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return ErrDetached
	}
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		return err
	}
	b.chart = c
	b.content = buf.Bytes()
	b.paints++
	return nil
}

// Detach makes subsequent paints fail with ErrDetached.
func (b *Buffer) Detach() {
	b.mu.Lock()
	b.detached = true
	b.mu.Unlock()
}

// Chart returns the chart last painted into the buffer.
func (b *Buffer) Chart() *Chart {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chart
}

// Bytes returns a copy of the latest painted SVG document.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.content)
}

// Paints reports how many times the buffer was painted.
func (b *Buffer) Paints() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paints
}

// WriteTo writes the latest painted SVG document to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes())
	return int64(n), err
}
