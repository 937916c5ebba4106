// Package cli builds the otpcop root command. It registers one flag per
// backend option, merges flags over the viper configuration, runs the audit
// orchestrator and renders the report.
package cli
