// Package history persists completed publish jobs in SQLite so operators can
// audit what was submitted, for which account, and how it ended. Records are
// written once, after the job finishes; the pipeline never reads them back on
// the hot path.
package history
