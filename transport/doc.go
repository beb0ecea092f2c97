// Package transport executes signed outbound HTTP calls and returns the
// provider response untouched so callers can relay it verbatim.
package transport
