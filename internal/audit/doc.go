// Package audit defines the backend-neutral core of otpcop.
//
// It exposes the FlaggedAccount and Outcome result model, the Backend and
// BackendFactory contracts implemented by every audited platform, option
// classification helpers used by factories, and the Orchestrator which runs
// configured backends concurrently and collects exactly one Outcome per backend
// in submission order.
package audit
