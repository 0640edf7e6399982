// Package daemon hosts the long-running publish service: it enforces
// single-instance execution with a file lock, owns the HTTP interface, and
// ties the orchestrator's lifetime to the process signal context.
package daemon
