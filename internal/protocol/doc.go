// Package protocol owns the byte line protocol contract.
//
// Ownership boundary:
// - prompt/response byte constants
// - query decoding and classification
// - decimal parsing and binary formatting
//
// The package performs no I/O. Connection handling lives in internal/server.
package protocol
