// Package ir provides the core data model shared by every offload package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the ledger entry model
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Entry IDs strictly increase with insertion order and are never reused
//   - The empty TxID is the "no transaction" sentinel
//   - Committed is only ever set on entries without an owner
//   - Journal ordering uses the logical seq only, never wall-clock time
package ir
