package power

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/spf13/afero"
)

// step is one hardware side effect, stamped with fake-clock time since the
// rig was built.
type step struct {
	Kind   string // "write" or "set"
	Target string
	Value  string
	At     time.Duration
}

type rig struct {
	clock *clockwork.FakeClock
	start time.Time

	mu        sync.Mutex
	steps     []step
	failPaths map[string]error
	failLines map[int]error

	lines [NodeCount]*fakeLine
	ctrl  *Controller
}

type fakeLine struct {
	rig    *rig
	index  int
	closed bool
	err    error
}

func (l *fakeLine) SetValue(value int) error {
	r := l.rig
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failLines[l.index]; err != nil {
		return err
	}
	v := "0"
	if value != 0 {
		v = "1"
	}
	r.steps = append(r.steps, step{"set", LineNames[l.index], v, r.clock.Since(r.start)})
	return nil
}

func (l *fakeLine) Close() error {
	l.rig.mu.Lock()
	defer l.rig.mu.Unlock()
	l.closed = true
	return l.err
}

type fakeAttrs struct{ rig *rig }

func (a fakeAttrs) Write(path, value string) error {
	r := a.rig
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failPaths[path]; err != nil {
		return err
	}
	if err := r.failPaths[path+"="+value]; err != nil {
		return err
	}
	r.steps = append(r.steps, step{"write", path, value, r.clock.Since(r.start)})
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()
	clock := clockwork.NewFakeClock()
	r := &rig{
		clock:     clock,
		start:     clock.Now(),
		failPaths: make(map[string]error),
		failLines: make(map[int]error),
	}

	var lines [NodeCount]Line
	for i := range NodeCount {
		r.lines[i] = &fakeLine{rig: r, index: i}
		lines[i] = r.lines[i]
	}

	fs := afero.NewMemMapFs()
	for _, p := range []string{led.PowerPath, led.StatusPath} {
		if err := afero.WriteFile(fs, p, []byte("0"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	base := []Option{WithClock(clock), WithAttributeWriter(fakeAttrs{r}), WithLogger(quiet())}
	r.ctrl = New(lines, led.New(fs, quiet()), append(base, opts...)...)
	return r
}

func (r *rig) failWrite(path string) {
	r.mu.Lock()
	r.failPaths[path] = errors.New("permission denied")
	r.mu.Unlock()
}

// failWriteValue fails only writes of value to path.
func (r *rig) failWriteValue(path, value string) {
	r.mu.Lock()
	r.failPaths[path+"="+value] = errors.New("invalid argument")
	r.mu.Unlock()
}

func (r *rig) failLine(index int) {
	r.mu.Lock()
	r.failLines[index] = errors.New("device or resource busy")
	r.mu.Unlock()
}

func (r *rig) journal() []step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]step(nil), r.steps...)
}

// run executes fn, advancing the fake clock in SettleDelay steps whenever
// the controller is blocked on a timer.
func (r *rig) run(t *testing.T, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("operation did not finish")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		if r.clock.BlockUntilContext(ctx, 1) == nil {
			r.clock.Advance(SettleDelay)
		}
		cancel()
	}
}

func write(index int, value string, at time.Duration) step {
	return step{"write", StatePath(index), value, at}
}

func set(index int, value string, at time.Duration) step {
	return step{"set", LineNames[index], value, at}
}

const ms = time.Millisecond
