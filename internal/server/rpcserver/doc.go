// Package rpcserver is the relay's JSON-RPC 2.0 transport.
//
// A single method, "swap", is served over HTTP POST at /v1. Requests are
// decoded by a gorilla/rpc codec with strict parameter checking and handed
// to a Swapper; engine failures are mapped to JSON-RPC error objects:
//
//   - client-class failures become -32602 with the engine's message
//   - everything else becomes -32603
//
// The handler chain tags each request with an ID, logs it, recovers
// panics, rejects other paths, and applies an optional per-client rate
// limit and a body size cap.
package rpcserver
