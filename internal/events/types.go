package events

// Event type constants for kelindar/event.
const (
	TypeNodePowerChanged uint32 = iota + 1
	TypeNodeReset
	TypeLEDChanged
	TypePowerError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// NodePowerChangedEvent is published after a node's enable line has been
// driven to a new level.
type NodePowerChangedEvent struct {
	Node      int    `json:"node" example:"1" doc:"Node number (1-4)"`
	On        bool   `json:"on" example:"true" doc:"Whether the node enable line is now driven on"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for NodePowerChangedEvent.
func (e NodePowerChangedEvent) Type() uint32 { return TypeNodePowerChanged }

// NodeResetEvent is published when a node has completed an off/on cycle.
type NodeResetEvent struct {
	Node      int    `json:"node" example:"2" doc:"Node number (1-4)"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for NodeResetEvent.
func (e NodeResetEvent) Type() uint32 { return TypeNodeReset }

// LEDChangedEvent is published after an indicator has been written.
type LEDChangedEvent struct {
	LED       string `json:"led" example:"power" doc:"Indicator name"`
	On        bool   `json:"on" example:"true" doc:"Whether the indicator is now lit"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDChangedEvent.
func (e LEDChangedEvent) Type() uint32 { return TypeLEDChanged }

// PowerErrorEvent is published when a power operation stops on a hardware
// failure. Nodes handled before the failure keep their new state.
type PowerErrorEvent struct {
	Operation string `json:"operation" example:"set_power" doc:"Operation that failed"`
	Code      string `json:"code" example:"ATTRIBUTE_WRITE_FAILED" doc:"Error code"`
	Target    string `json:"target" example:"/sys/bus/platform/devices/node3-power/state" doc:"Path or line that failed"`
	Error     string `json:"error" doc:"Detailed error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PowerErrorEvent.
func (e PowerErrorEvent) Type() uint32 { return TypePowerError }
