// Package server exposes the relay over HTTP with gin: the four signed
// provider pass-through endpoints, the always-acknowledging webhook receiver,
// health and metrics.
package server
