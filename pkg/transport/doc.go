// Package transport builds TLS configuration for the bridge's connection to
// the bus broker. It does not implement a transport itself - that lives in
// internal/halref, which is outside the core per the HAL boundary.
package transport
