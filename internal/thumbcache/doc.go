// Package thumbcache holds rendered thumbnails in two tiers.
//
// The memory tier is a bounded map keyed by (source, width, height)
// with timestamp-based LRU eviction; when it fills, the
// oldest-accessed quarter of the entries is dropped in one pass. The
// disk tier stores quality-85 JPEGs under
// <root>/<w>x<h>/<fingerprint>.jpg, written atomically so readers
// never observe a partial file. Disk entries are never deleted; a
// source file change simply fingerprints to a new name.
package thumbcache
