// Package health provides the reachability probe run before the
// orchestrator leaves its error state.
//
// A Checker reports a Status for one component; StoreChecker probes the
// local cache store. Stores that cannot be pinged are assumed healthy.
package health
