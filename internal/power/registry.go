package power

const (
	// LatchingChip carries the enable lines on latching board revisions.
	LatchingChip = "/dev/gpiochip1"
	// DefaultChip carries the enable lines on every other revision.
	DefaultChip = "/dev/gpiochip2"

	// DefaultConsumer labels requested lines in the kernel's line table.
	DefaultConsumer = "nodepower"
)

// LineNames are the enable line names, index-aligned with nodes 1-4.
var LineNames = [NodeCount]string{"node1-en", "node2-en", "node3-en", "node4-en"}

// Line is a requested output line.
type Line interface {
	SetValue(value int) error
	Close() error
}

// LineInfo describes one line of a GPIO chip.
type LineInfo struct {
	Offset   int    `json:"offset"`
	Name     string `json:"name"`
	Consumer string `json:"consumer,omitempty"`
	Used     bool   `json:"used"`
}

// ChipPath selects the GPIO chip for the board revision.
func ChipPath(latching bool) string {
	if latching {
		return LatchingChip
	}
	return DefaultChip
}

// findOffsets maps each enable line name to its offset in infos.
func findOffsets(infos []LineInfo) ([NodeCount]int, error) {
	byName := make(map[string]int, len(infos))
	for _, info := range infos {
		if info.Name != "" {
			byName[info.Name] = info.Offset
		}
	}

	var offsets [NodeCount]int
	for i, name := range LineNames {
		offset, ok := byName[name]
		if !ok {
			return offsets, &Error{
				Code:    ErrLineNotFound,
				Message: "enable line not found on chip",
				Target:  name,
			}
		}
		offsets[i] = offset
	}
	return offsets, nil
}

func closeLines(lines []Line) {
	for _, l := range lines {
		if l != nil {
			_ = l.Close()
		}
	}
}
