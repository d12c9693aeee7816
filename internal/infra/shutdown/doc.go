// Package shutdown provides the process stop signal and graceful cleanup.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	defer h.NotifySignals()()
//	h.OnShutdown(func(context.Context) error { return store.Close() })
//	run(h.Context()) // returns once the stop signal is raised
//	_ = h.RunHooks()
package shutdown
