// Package relay wires the gate, the RPC transport and the round scheduler
// into one process lifetime.
//
// Listen returns once the transport has closed and the scheduler has
// exited. Cancelling the stop context makes the scheduler close the
// transport; a transport that closes on its own stops the scheduler too.
package relay
