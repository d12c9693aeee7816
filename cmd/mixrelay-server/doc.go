// Command mixrelay-server runs a coin-swap mix relay.
//
// It accepts swap requests over JSON-RPC at /v1, queues them in a local
// store after checking the outputs against a ledger node, and executes a
// round over the queued swaps at a fixed interval.
//
// Usage:
//
//	mixrelay-server [--config FILE] [--addr HOST:PORT] [--data-dir DIR] [--log-level LEVEL]
//	mixrelay-server config check|show
//	mixrelay-server store rounds|pending|gc
//	mixrelay-server version
package main
