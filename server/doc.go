// Package server is the HTTP surface of the proxy: route registration,
// parameter validation, and response shaping. Caching, credential
// extraction, and telemetry are layered on as middleware; handlers only
// validate, call the upstream client, and write JSON.
package server
