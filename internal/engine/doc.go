// Package engine runs the incremental offload pipeline.
//
// Compile is the single entry point for a submission. The text is split
// into units, each unit becomes a ledger entry, and after every append the
// hoister lifts new wrapper declarations to file scope. The buffer is then
// handed to the device compiler and the resulting header is swapped into
// the host.
//
// Any failure rolls back the entries of the submission that were not
// committed, so the ledger returns to its state before the call for every
// committed entry. Entries are claimed by host transactions through
// SetTransaction and SetDeclSuccess, and released through
// RemoveCodeByTransaction.
//
// The engine is single-threaded. Callers serialize every call; nothing here
// locks. While the device compiler runs, an in-flight flag turns commit and
// rollback requests into no-ops, so a host that reacts to Declare by calling
// back into the engine cannot mutate the ledger under the running
// submission.
package engine
