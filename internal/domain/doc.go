// Package domain holds the core types shared across the application:
// the outbound bot capability, inline actions, and sentinel errors.
// It has no dependencies on adapters or transport.
package domain
