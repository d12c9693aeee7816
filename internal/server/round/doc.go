// Package round drives the engine through periodic batch rounds.
//
// A Scheduler ticks at a fixed cadence and runs one round every Interval
// ticks through the shared gate. Round failures are logged and counted but
// never stop the loop. When the stop signal fires the scheduler closes the
// RPC transport and exits; a round already in progress is allowed to finish.
package round
