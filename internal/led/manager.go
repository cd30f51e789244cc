package led

import (
	"context"
	"log/slog"
	"sync"

	"github.com/smazurov/nodepower/internal/events"
)

// StatusIndicator switches the status LED. *power.Controller implements it.
type StatusIndicator interface {
	StatusLED(ctx context.Context, on bool) error
}

// Manager keeps the status indicator lit while any node is powered, based on
// node power events. It only writes when the aggregate changes, so a manual
// setting holds until then.
type Manager struct {
	indicator   StatusIndicator
	eventBus    *events.Bus
	logger      *slog.Logger
	unsubscribe func()

	mu  sync.Mutex
	on  map[int]bool
	lit *bool
}

// NewManager creates a manager driving indicator.
func NewManager(indicator StatusIndicator, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		indicator: indicator,
		eventBus:  eventBus,
		logger:    logger,
		on:        make(map[int]bool),
	}
}

// Start subscribes to node power events.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(m.handleEvent)
	m.logger.Info("LED manager started")
}

// Stop unsubscribes.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.logger.Info("LED manager stopped")
}

// AnyOn reports whether any node is known to be powered.
func (m *Manager) AnyOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.anyOnLocked()
}

func (m *Manager) anyOnLocked() bool {
	for _, on := range m.on {
		if on {
			return true
		}
	}
	return false
}

func (m *Manager) handleEvent(e events.NodePowerChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.on[e.Node] = e.On
	want := m.anyOnLocked()
	if m.lit != nil && *m.lit == want {
		return
	}

	if err := m.indicator.StatusLED(context.Background(), want); err != nil {
		m.logger.Warn("Failed to update status LED", "on", want, "error", err)
		return
	}
	m.lit = &want
	m.logger.Debug("Status LED follows nodes", "node", e.Node, "node_on", e.On, "led_on", want)
}
