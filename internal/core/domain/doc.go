// Package domain defines the core domain models for mixrelay.
//
// Domain models are pure value objects without IO dependencies.
// This package contains:
//
//   - SwapRequest: the onion packet and commitment signature a client submits
//   - Onion, Commitment, ComSignature: opaque wire values with hex encodings
//   - SwapEntry, RoundRecord: what the engine persists between rounds
//   - SwapError: the engine's error taxonomy and its client/server classes
package domain
