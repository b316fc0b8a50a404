package fetch

import (
	"mime"
	"strings"
)

// audioExtensions pins deterministic extensions for the media types the
// upstream actually serves. The stdlib mime registry is consulted for
// anything else; registry answers can list several extensions, so the
// common audio types are resolved here first.
var audioExtensions = map[string]string{
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/mp4":    "m4a",
	"audio/aac":    "aac",
	"audio/ogg":    "ogg",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
}

// ExtensionForContentType maps a Content-Type header value to a file
// extension without the leading dot. Returns "" when nothing maps, meaning
// the file is stored without a suffix.
func ExtensionForContentType(contentType string) string {
	if contentType == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	mediaType = strings.ToLower(mediaType)

	if ext, ok := audioExtensions[mediaType]; ok {
		return ext
	}

	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}
