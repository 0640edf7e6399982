// Package textutil holds small text normalization helpers shared by the
// submit endpoint and the pipeline: form value cleanup, hashtag formatting,
// and filesystem-safe token sanitation.
package textutil
