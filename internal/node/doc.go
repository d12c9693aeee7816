// Package node is a client for a ledger node's foreign JSON-RPC API.
//
// Only the two calls the mixer needs are implemented: get_outputs, to
// look a commitment up in the UTXO set, and get_tip. Results arrive in the
// node's {"Ok": ...} / {"Err": ...} envelope, which Client unwraps.
package node
