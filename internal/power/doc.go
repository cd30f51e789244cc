// Package power sequences the four compute node slots of a Turing Pi style
// carrier board.
//
// Changing a node's power is always three steps, in this order:
//
//  1. write "enabled" or "disabled" to the node's platform device state
//     attribute, so the kernel side knows what is coming;
//  2. wait SettleDelay;
//  3. drive the node's enable line on the GPIO chip.
//
// Nodes named in one call are processed one after another, lowest first.
// A failure stops the call; nodes already processed keep their new state.
//
// The Controller holds no lock and no cached node state. Callers that share
// one Controller between goroutines must serialise access themselves.
package power
