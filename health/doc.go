// Package health provides health checking primitives for the proxy.
//
// A Checker reports the state of one component; the Aggregator combines
// checkers into a composite readiness signal exposed over HTTP. The
// proxy's unconditional /health endpoint lives in the server package and
// does not use this machinery.
package health
