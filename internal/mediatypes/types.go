package mediatypes

import (
	"path/filepath"
	"strings"
)

// VideoExtensions maps file extensions to whether they count as
// playable media when scanning a folder.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".m4v":  true,
	".webm": true,
}

// ImageExtensions maps file extensions to whether they are supported
// poster/thumbnail source formats.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".gif":  true,
}

// IsVideo reports whether the file name has a playable media extension.
func IsVideo(name string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsImage reports whether the file name has a supported image extension.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}
