// Package harness runs gate conformance scenarios.
//
// A scenario is a YAML file describing one browsing session: a flow of
// verify, load and reset steps, each optionally with an expected outcome, and
// assertions over the resulting trace, the final gate state and the
// verification audit log.
//
// Each scenario runs against a fresh in-memory SQLite store with a fixed
// clock, so traces are reproducible and can be compared against golden files:
//
//	name: reload-relocks
//	description: A reload clears an unlocked session.
//	flow:
//	  - verify: {mc: "100-200", derive: true}
//	    expect: {status: unlocked}
//	  - load: reload
//	    expect: {status: locked}
//	assertions:
//	  - type: trace_order
//	    events: ["transition:unlocked", "transition:locked"]
//	  - type: final_state
//	    status: locked
package harness
