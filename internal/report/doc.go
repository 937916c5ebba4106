// Package report renders audit outcomes for people and machines and maps a run
// to the process exit status.
package report
