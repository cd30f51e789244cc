package power

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/nodepower/internal/events"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatePath(t *testing.T) {
	assert.Equal(t, "/sys/bus/platform/devices/node1-power/state", StatePath(0))
	assert.Equal(t, "/sys/bus/platform/devices/node4-power/state", StatePath(3))
}

func TestSetPowerNode_Sequence(t *testing.T) {
	r := newRig(t)

	err := r.run(t, func() error {
		return r.ctrl.SetPowerNode(context.Background(), 0b0101, 0b1111)
	})
	require.NoError(t, err)

	assert.Equal(t, []step{
		write(0, "enabled", 0), set(0, "1", 100*ms),
		write(1, "disabled", 100*ms), set(1, "0", 200*ms),
		write(2, "enabled", 200*ms), set(2, "1", 300*ms),
		write(3, "disabled", 300*ms), set(3, "0", 400*ms),
	}, r.journal())
}

func TestSetPowerNode_OnlyMaskedNodes(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.run(t, func() error {
		return r.ctrl.SetPowerNode(context.Background(), 0b1111, 0b1000)
	}))

	assert.Equal(t, []step{write(3, "enabled", 0), set(3, "1", 100*ms)}, r.journal())
}

func TestSetPowerNode_EmptyMask(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.ctrl.SetPowerNode(context.Background(), 0b1111, 0))
	assert.Empty(t, r.journal())
}

func TestSetPowerNode_IgnoresBitsAboveNode4(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.run(t, func() error {
		return r.ctrl.SetPowerNode(context.Background(), 0xFF, 0xF1)
	}))

	assert.Equal(t, []step{write(0, "enabled", 0), set(0, "1", 100*ms)}, r.journal())
}

func TestSetPowerNode_RepeatsFullSequence(t *testing.T) {
	r := newRig(t)

	for range 2 {
		require.NoError(t, r.run(t, func() error {
			return r.ctrl.SetPowerNode(context.Background(), 0b0010, 0b0010)
		}))
	}

	assert.Equal(t, []step{
		write(1, "enabled", 0), set(1, "1", 100*ms),
		write(1, "enabled", 100*ms), set(1, "1", 200*ms),
	}, r.journal())
}

func TestSetPowerNode_AttributeFailureStopsAtNode(t *testing.T) {
	r := newRig(t)
	r.failWrite(StatePath(2))

	err := r.run(t, func() error {
		return r.ctrl.SetPowerNode(context.Background(), 0b1111, 0b1111)
	})

	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrAttributeWrite, pe.Code)
	assert.Equal(t, StatePath(2), pe.Target)

	// Nodes 1 and 2 changed; node 3's line and everything after untouched.
	assert.Equal(t, []step{
		write(0, "enabled", 0), set(0, "1", 100*ms),
		write(1, "enabled", 100*ms), set(1, "1", 200*ms),
	}, r.journal())
}

func TestSetPowerNode_LineFailureStopsAtNode(t *testing.T) {
	r := newRig(t)
	r.failLine(1)

	err := r.run(t, func() error {
		return r.ctrl.SetPowerNode(context.Background(), 0, 0b1111)
	})

	assert.True(t, IsCode(err, ErrLineSet))
	assert.Equal(t, "node2-en", TargetOf(err))
	assert.Equal(t, []step{
		write(0, "disabled", 0), set(0, "0", 100*ms),
		write(1, "disabled", 100*ms),
	}, r.journal())
}

func TestSetPowerNode_CancelDuringSettle(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.ctrl.SetPowerNode(ctx, 0b0001, 0b0011) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, r.clock.BlockUntilContext(waitCtx, 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("SetPowerNode did not return after cancel")
	}

	assert.Equal(t, []step{write(0, "enabled", 0)}, r.journal())
}

func TestResetNode(t *testing.T) {
	for node := NodeID(1); node <= NodeCount; node++ {
		t.Run(node.String(), func(t *testing.T) {
			r := newRig(t)
			i := node.Index()

			require.NoError(t, r.run(t, func() error {
				return r.ctrl.ResetNode(context.Background(), node)
			}))

			assert.Equal(t, []step{
				write(i, "disabled", 0), set(i, "0", 100*ms),
				write(i, "enabled", 1100*ms), set(i, "1", 1200*ms),
			}, r.journal())
		})
	}
}

func TestResetNode_Invalid(t *testing.T) {
	r := newRig(t)

	for _, node := range []NodeID{0, 5, 255} {
		err := r.ctrl.ResetNode(context.Background(), node)
		assert.True(t, IsCode(err, ErrInvalidNode), "node %d: %v", node, err)
	}
	assert.Empty(t, r.journal())
}

func TestResetNode_OffFailureSkipsOn(t *testing.T) {
	r := newRig(t)
	r.failLine(2)

	err := r.run(t, func() error {
		return r.ctrl.ResetNode(context.Background(), 3)
	})

	assert.True(t, IsCode(err, ErrLineSet))
	assert.Equal(t, []step{write(2, "disabled", 0)}, r.journal())
}

func TestResetNode_OnFailureLeavesNodeOff(t *testing.T) {
	bus := events.New()
	r := newRig(t, WithEventBus(bus))
	r.failWriteValue(StatePath(1), "enabled")

	resets := make(chan events.NodeResetEvent, 1)
	failures := make(chan events.PowerErrorEvent, 1)
	defer bus.Subscribe(func(e events.NodeResetEvent) { resets <- e })()
	defer bus.Subscribe(func(e events.PowerErrorEvent) { failures <- e })()

	err := r.run(t, func() error {
		return r.ctrl.ResetNode(context.Background(), 2)
	})

	assert.True(t, IsCode(err, ErrAttributeWrite), "got %v", err)
	assert.Equal(t, StatePath(1), TargetOf(err))
	assert.Equal(t, []step{write(1, "disabled", 0), set(1, "0", 100*ms)}, r.journal())

	failure := <-failures
	assert.Equal(t, OpReset, failure.Operation)
	select {
	case e := <-resets:
		t.Fatalf("unexpected reset event %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestResetNode_CancelWhileOff(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.ctrl.ResetNode(ctx, 1) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, r.clock.BlockUntilContext(waitCtx, 1))
	r.clock.Advance(SettleDelay)
	require.Eventually(t, func() bool { return len(r.journal()) == 2 }, time.Second, time.Millisecond)
	require.NoError(t, r.clock.BlockUntilContext(waitCtx, 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []step{write(0, "disabled", 0), set(0, "0", 100*ms)}, r.journal())
}

func ledRig(t *testing.T, fs afero.Fs) *Controller {
	t.Helper()
	r := newRig(t)
	r.ctrl.leds = led.New(fs, quiet())
	return r.ctrl
}

func TestIndicators(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, led.PowerPath, []byte("0"), 0o644))
	require.NoError(t, afero.WriteFile(fs, led.StatusFallbackPath, []byte("0"), 0o644))
	ctrl := ledRig(t, fs)
	ctx := context.Background()

	read := func(path string) string {
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		return string(data)
	}

	require.NoError(t, ctrl.PowerLED(ctx, true))
	assert.Equal(t, "1", read(led.PowerPath))
	require.NoError(t, ctrl.PowerLED(ctx, false))
	assert.Equal(t, "0", read(led.PowerPath))

	require.NoError(t, ctrl.StatusLED(ctx, true))
	assert.Equal(t, "1", read(led.StatusFallbackPath))

	require.NoError(t, ctrl.SetLED(ctx, led.Status, false))
	assert.Equal(t, "0", read(led.StatusFallbackPath))

	assert.ErrorIs(t, ctrl.SetLED(ctx, "activity", true), led.ErrUnknownLED)
}

func TestIndicators_WriteFailure(t *testing.T) {
	ctrl := ledRig(t, afero.NewMemMapFs())

	err := ctrl.PowerLED(context.Background(), true)
	assert.True(t, IsCode(err, ErrAttributeWrite))
	assert.Equal(t, led.PowerFallbackPath, TargetOf(err))
	assert.Contains(t, err.Error(), "power")
}

func TestClose(t *testing.T) {
	r := newRig(t)
	r.lines[1].err = errors.New("bad fd")

	err := r.ctrl.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node2-en")
	for i, l := range r.lines {
		assert.True(t, l.closed, "line %d", i)
	}
}

type recorded struct {
	op  string
	err error
}

type fakeRecorder struct {
	mu    sync.Mutex
	ops   []recorded
	nodes map[NodeID]bool
}

func (f *fakeRecorder) ObserveOperation(op string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recorded{op, err})
}

func (f *fakeRecorder) ObserveNode(node NodeID, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes == nil {
		f.nodes = make(map[NodeID]bool)
	}
	f.nodes[node] = on
}

func TestRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	r := newRig(t, WithRecorder(rec))
	ctx := context.Background()

	require.NoError(t, r.run(t, func() error { return r.ctrl.SetPowerNode(ctx, 0b0011, 0b0011) }))
	require.NoError(t, r.run(t, func() error { return r.ctrl.ResetNode(ctx, 4) }))
	require.NoError(t, r.ctrl.StatusLED(ctx, true))
	r.failWrite(StatePath(0))
	require.Error(t, r.run(t, func() error { return r.ctrl.SetPowerNode(ctx, 0, 1) }))

	require.Len(t, rec.ops, 4)
	assert.Equal(t, []string{OpSetPower, OpReset, OpStatusLED, OpSetPower},
		[]string{rec.ops[0].op, rec.ops[1].op, rec.ops[2].op, rec.ops[3].op})
	assert.NoError(t, rec.ops[1].err)
	assert.True(t, IsCode(rec.ops[3].err, ErrAttributeWrite))
	assert.Equal(t, map[NodeID]bool{1: true, 2: true, 4: true}, rec.nodes)
}

func TestEvents(t *testing.T) {
	bus := events.New()
	r := newRig(t, WithEventBus(bus))
	ctx := context.Background()

	nodes := make(chan events.NodePowerChangedEvent, 8)
	resets := make(chan events.NodeResetEvent, 1)
	leds := make(chan events.LEDChangedEvent, 1)
	failures := make(chan events.PowerErrorEvent, 1)
	defer bus.Subscribe(func(e events.NodePowerChangedEvent) { nodes <- e })()
	defer bus.Subscribe(func(e events.NodeResetEvent) { resets <- e })()
	defer bus.Subscribe(func(e events.LEDChangedEvent) { leds <- e })()
	defer bus.Subscribe(func(e events.PowerErrorEvent) { failures <- e })()

	require.NoError(t, r.run(t, func() error { return r.ctrl.ResetNode(ctx, 2) }))
	require.NoError(t, r.ctrl.PowerLED(ctx, true))
	r.failLine(3)
	require.Error(t, r.run(t, func() error { return r.ctrl.SetPowerNode(ctx, 0b1000, 0b1000) }))

	off, on := <-nodes, <-nodes
	assert.Equal(t, 2, off.Node)
	assert.False(t, off.On)
	assert.Equal(t, 2, on.Node)
	assert.True(t, on.On)
	assert.NotEmpty(t, on.Timestamp)

	assert.Equal(t, 2, (<-resets).Node)

	ledEvent := <-leds
	assert.Equal(t, led.Power, ledEvent.LED)
	assert.True(t, ledEvent.On)

	failure := <-failures
	assert.Equal(t, OpSetPower, failure.Operation)
	assert.Equal(t, string(ErrLineSet), failure.Code)
	assert.Equal(t, "node4-en", failure.Target)
}

func TestOpen_Simulated(t *testing.T) {
	r := newRig(t)
	ctrl, err := Open(Config{Simulate: true}, WithClock(r.clock), WithLogger(quiet()))
	require.NoError(t, err)
	defer ctrl.Close()
	r.ctrl = ctrl

	require.NoError(t, r.run(t, func() error {
		return ctrl.SetPowerNode(context.Background(), 0b0110, 0b1111)
	}))

	for i, want := range []int{0, 1, 1, 0} {
		sim, ok := ctrl.lines[i].(*SimLine)
		require.True(t, ok)
		assert.Equal(t, want, sim.Value(), "node %d", i+1)
	}

	require.NoError(t, ctrl.PowerLED(context.Background(), true))
	assert.Equal(t, led.PowerPath, ctrl.LEDs().Path(led.Power))

	require.NoError(t, ctrl.Close())
	for _, l := range ctrl.lines {
		assert.True(t, l.(*SimLine).Closed())
	}
}

func TestOpen_NoLEDs(t *testing.T) {
	ctrl, err := Open(Config{Simulate: true, NoLEDs: true}, WithLogger(quiet()))
	require.NoError(t, err)
	defer ctrl.Close()

	ctx := context.Background()
	require.NoError(t, ctrl.PowerLED(ctx, true))
	require.NoError(t, ctrl.SetLED(ctx, led.Status, true))
	assert.ErrorIs(t, ctrl.SetLED(ctx, "activity", true), led.ErrUnknownLED)

	assert.Empty(t, ctrl.LEDs().Path(led.Power))
	assert.Equal(t, []string{led.Power, led.Status}, ctrl.LEDs().Available())
}

func TestStatusManagerDrivesController(t *testing.T) {
	bus := events.New()
	rec := &fakeRecorder{}
	r := newRig(t, WithEventBus(bus), WithRecorder(rec))

	leds := make(chan events.LEDChangedEvent, 1)
	defer bus.Subscribe(func(e events.LEDChangedEvent) { leds <- e })()

	mgr := led.NewManager(r.ctrl, bus, quiet())
	mgr.Start()
	defer mgr.Stop()

	bus.Publish(events.NodePowerChangedEvent{Node: 3, On: true})

	select {
	case e := <-leds:
		assert.Equal(t, led.Status, e.LED)
		assert.True(t, e.On)
	case <-time.After(time.Second):
		t.Fatal("status LED was not switched through the controller")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.ops)
	assert.Equal(t, OpStatusLED, rec.ops[0].op)
}

func TestNewSimulatedFS(t *testing.T) {
	fs := NewSimulatedFS()
	for i := range NodeCount {
		data, err := afero.ReadFile(fs, StatePath(i))
		require.NoError(t, err)
		assert.Equal(t, "disabled", string(data))
	}
	for _, p := range []string{led.PowerPath, led.StatusPath} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}
