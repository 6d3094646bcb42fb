// Package fingerprint derives the content-addressed identifiers used
// by the poster store and the thumbnail cache.
//
// A folder fingerprint is a SHA-1 of the separator-normalized folder
// path. A thumbnail fingerprint additionally folds in the source
// file's modification time, which makes cache invalidation implicit: a
// changed file hashes to a new name and the stale entry is never
// looked up again.
package fingerprint
