// Package api defines the JSON payload types exchanged between the daemon's
// HTTP interface and its clients, plus an HTTP client used by the CLI.
package api
