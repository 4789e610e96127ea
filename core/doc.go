// Package core defines the shared vocabulary of the expertswarm framework:
// queries, expert profiles, swarm trace records (handoffs, tool calls,
// telemetry events), the session status machine, the error taxonomy and the
// pluggable capability interfaces (selection oracle, specialist behavior)
// implemented by sibling packages.
//
// Keeping these types in a leaf package avoids import cycles between the
// engine, the coordinator and the capability implementations.
package core
