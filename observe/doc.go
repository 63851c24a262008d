// Package observe provides observability primitives for the proxy.
//
// It is a pure instrumentation library: no routing, no upstream I/O
// beyond exporter setup. The server wires its middleware around every
// route to get a span, request metrics, and a structured log line per
// exchange.
package observe
