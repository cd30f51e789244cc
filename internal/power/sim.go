package power

import (
	"errors"
	"sync"

	"github.com/smazurov/nodepower/internal/led"
	"github.com/spf13/afero"
)

var errLineClosed = errors.New("line closed")

// SimLine is an in-memory Line used by --simulate and tests.
type SimLine struct {
	mu     sync.Mutex
	name   string
	value  int
	closed bool
}

// NewSimLine returns an open simulated line at level 0.
func NewSimLine(name string) *SimLine {
	return &SimLine{name: name}
}

// SetValue records value.
func (l *SimLine) SetValue(value int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errLineClosed
	}
	l.value = value
	return nil
}

// Value returns the last level set.
func (l *SimLine) Value() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// Closed reports whether Close was called.
func (l *SimLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close releases the line.
func (l *SimLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *SimLine) String() string {
	return l.name
}

// SimulatedLines returns four simulated enable lines named like the real ones.
func SimulatedLines() [NodeCount]Line {
	var lines [NodeCount]Line
	for i, name := range LineNames {
		lines[i] = NewSimLine(name)
	}
	return lines
}

// NewSimulatedFS returns an in-memory filesystem holding every attribute the
// controller writes: the four node state files and both primary LED paths.
func NewSimulatedFS() afero.Fs {
	fs := afero.NewMemMapFs()
	for i := range NodeCount {
		_ = afero.WriteFile(fs, StatePath(i), []byte(stateDisabled), 0o644)
	}
	for _, p := range []string{led.PowerPath, led.StatusPath} {
		_ = afero.WriteFile(fs, p, []byte(led.Brightness(false)), 0o644)
	}
	return fs
}
