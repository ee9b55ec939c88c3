// Package resolve implements the tiered resolution protocol.
//
// It defines the capability interfaces the core requires from its
// collaborators (FastApproxEngine, AuthoritativeService), and a Client
// that invokes the three tiers - local store, fast-approximate,
// authoritative - turning each outcome into a typed Response message the
// orchestrator's event loop consumes. Tier calls never block the caller;
// cancellation is honored by ignoring late responses.
package resolve
