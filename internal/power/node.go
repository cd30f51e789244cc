package power

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeCount is the number of compute module slots on the board.
const NodeCount = 4

// AllNodes masks the bits of a state or mask that map to nodes.
const AllNodes uint8 = 1<<NodeCount - 1

// NodeID is a 1-based node number.
type NodeID uint8

// Valid reports whether n names one of the four nodes.
func (n NodeID) Valid() bool {
	return n >= 1 && n <= NodeCount
}

// Bitfield returns the mask bit for n.
func (n NodeID) Bitfield() uint8 {
	return 1 << (n - 1)
}

// Index returns the zero-based position of n.
func (n NodeID) Index() int {
	return int(n) - 1
}

func (n NodeID) String() string {
	return "node" + strconv.Itoa(int(n))
}

// NodeAt converts a zero-based index to a NodeID.
func NodeAt(index int) NodeID {
	return NodeID(index + 1)
}

// ParseNodeID accepts "1".."4" and "node1".."node4".
func ParseNodeID(s string) (NodeID, error) {
	digits := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "node")
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || !NodeID(n).Valid() {
		return 0, &Error{
			Code:    ErrInvalidNode,
			Message: fmt.Sprintf("node must be 1-%d", NodeCount),
			Target:  s,
		}
	}
	return NodeID(n), nil
}
