// Package service provides the swap engine boundary for mixrelay.
//
// This package contains:
//
//   - Engine: the capability the relay drives (Swap, ExecuteRound)
//   - Gate: serialised, timeout-bounded access to one Engine shared by
//     RPC handlers and the round scheduler
//   - Mixer: the reference Engine backed by a ledger node and a swap store
//
// Mixer defines the storage and node interfaces it consumes, so the
// concrete badger store and JSON-RPC node client can be swapped for fakes.
package service
