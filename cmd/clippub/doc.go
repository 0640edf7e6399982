// Command clippub is the publish service CLI: it runs the daemon and talks
// to a running daemon over its HTTP interface.
package main
