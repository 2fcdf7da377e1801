// Package httpserver wraps net/http's Server with env-driven configuration,
// signal-aware startup and graceful shutdown.
package httpserver
