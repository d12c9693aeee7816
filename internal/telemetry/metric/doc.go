// Package metric provides Prometheus metrics for mixrelay.
//
//   - registry.go: the Registry of relay metrics and its HTTP handler
//   - collector.go: a collector reporting the pending swap count on scrape
//
// All Registry recording methods are safe on a nil *Registry, so
// components can run without metrics in tests.
package metric
