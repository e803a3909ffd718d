// Package ir provides the value types stored in entity attributes and
// carried by query predicates and notification payloads.
//
// This package imports nothing internal. Every other internal package may
// import it.
//
// Key design constraints:
//   - NO float types - values round-trip through canonical JSON unchanged
//   - NULL is an explicit value (IRNull), never a Go nil inside containers
//   - Canonical JSON (RFC 8785) is the only JSON written to storage
package ir
