// Package harness runs scripted sessions against the pipeline engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	profile:
//	  layout: wrapped
//	steps:
//	  - submit: { text: "int x = 5;", kind: decl, decl_success: true }
//	  - submit: { text: "x++", tx: T1 }
//	  - fail_next_compile: true
//	  - submit: { text: "x--;", expect: compile_failed }
//	  - bind: { tx: T1 }
//	  - commit: {}
//	  - remove: { tx: T2 }
//	  - arg: { flag: "-I", value: "/opt/include" }
//	assertions:
//	  - type: entry_count
//	    count: 2
//	  - type: buffer_contains
//	    text: "x++"
//	  - type: owner_count
//	    tx: T1
//	    count: 1
//
// # Assertion Types
//
//   - entry_count: The ledger holds exactly count entries
//   - buffer_contains: The rendered buffer contains text
//   - buffer_not_contains: The rendered buffer does not contain text
//   - owner_count: Exactly count entries are owned by tx
//
// # Deterministic Testing
//
// Every run gets a scripted device compiler, a recording host, a fresh
// temporary work directory and an in-memory SQLite journal, so the same
// scenario always produces the same buffer and the same event trace.
package harness
