// Package server owns the byte line protocol listener.
//
// Ownership boundary:
// - listener bind and accept loop
// - one handler goroutine per connection
// - session registry (diagnostic metadata only)
// - shutdown drain with a bounded grace period
//
// Handler lifecycle:
// - await_input -> processing -> await_input ... -> closing
//
// Handlers share no protocol state; a connection is owned by exactly one
// handler until it is closed.
package server
