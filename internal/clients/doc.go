// Package clients provides adapters for external services.
//
// This package contains adapters that implement domain source interfaces for:
// - the gracenote grid and program overview endpoints
// - the tvheadend channel directory used for alias matching
//
// All adapters support context for cancellation and timeout handling.
package clients
