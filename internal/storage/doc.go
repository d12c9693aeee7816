// Package storage provides the durable swap store for mixrelay.
//
// SwapStore keeps accepted swaps and executed round records in Badger:
//
//   - swap/<commit hex>     JSON-encoded domain.SwapEntry
//   - pending/<commit hex>  empty; present while the swap awaits a round
//   - round/<seq>           JSON-encoded domain.RoundRecord (big-endian seq)
//   - meta/last_round       last assigned round sequence number
//   - meta/pending_index    set once the pending/ index is complete
//
// Completing a round is a single transaction, so a crash never leaves a
// round recorded with its swaps still pending. Value-log GC runs in the
// background and size gauges can be exported to Prometheus.
package storage
