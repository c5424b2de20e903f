// Package server implements the transport layer of the relay: the HTTP and
// WebSocket surface, per-connection pumps and rate limiting, configuration,
// and the Hub event loop that serializes every inbound event against the
// chat core.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, origin policy, and HTTP handlers to keep the
// codebase maintainable and testable as the project grows.
package server
