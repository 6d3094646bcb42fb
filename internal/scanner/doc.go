// Package scanner inspects media folders for tiles.
//
// A scan answers two questions per folder: does it have a poster in
// the content-addressed store, and does it directly contain playable
// media. Poster detection is a path derivation plus a stat; media
// detection lists the folder once and short-circuits on the first hit.
// Scans never fail, they degrade to an empty result.
//
// The package also runs an fsnotify watcher over browsed folders that
// drops stale in-memory thumbnails when source files change.
package scanner
