package fingerprint

import (
	"crypto/sha1" //nolint:gosec // SHA-1 names cache files, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"poster-browser/internal/logging"
)

// Folder returns the hex fingerprint of a folder path. Backslashes are
// normalized to forward slashes first so the same folder hashes
// identically regardless of which separator produced the path.
func Folder(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	sum := sha1.Sum([]byte(normalized)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Thumbnail returns the hex fingerprint identifying a rendered
// thumbnail of source. The source's modification time (whole seconds)
// is folded into the hash, so touching the file yields a new
// fingerprint and the old cache entry simply stops being found.
// A stat failure falls back to mtime 0 rather than erroring.
func Thumbnail(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}

	var mtime int64
	if info, err := os.Stat(source); err == nil {
		mtime = info.ModTime().Unix()
	}

	sum := sha1.Sum(fmt.Appendf(nil, "%s|%d", abs, mtime)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// ThumbnailPath returns the disk cache location for a thumbnail of
// source at the given target size: cacheRoot/{w}x{h}/{hash}.jpg.
// The size bucket directory is created if absent; creation is
// idempotent and safe under concurrent callers.
func ThumbnailPath(cacheRoot, source string, w, h int) string {
	bucket := filepath.Join(cacheRoot, fmt.Sprintf("%dx%d", w, h))
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		logging.Warn("fingerprint: failed to create cache bucket %s: %v", bucket, err)
	}
	return filepath.Join(bucket, Thumbnail(source)+".jpg")
}
