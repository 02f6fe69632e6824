package relay

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces a client supplied name to a safe flat ASCII file name.
// It folds accents (NFKD), drops remaining non-ASCII runes, turns slashes and
// whitespace runs into underscores, removes anything outside [A-Za-z0-9_.-] and trims
// leading and trailing dots and underscores. Backslashes are not separators and are
// simply removed. The result may be empty.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return ""
	}

	var ascii strings.Builder
	ascii.Grow(len(filename))
	for _, r := range norm.NFKD.String(filename) {
		switch {
		case r == '/':
			ascii.WriteRune(' ')
		case r < unicode.MaxASCII:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var result strings.Builder
	result.Grow(len(joined))
	for _, r := range joined {
		if isFilenameRune(r) {
			result.WriteRune(r)
		}
	}

	return strings.Trim(result.String(), "._")
}

func isFilenameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '_' || r == '.' || r == '-'
}

// Extension returns the lowercased text after the last dot.
// A name without a dot is returned whole, lowercased.
func Extension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return strings.ToLower(filename[idx+1:])
	}
	return strings.ToLower(filename)
}

// ContentTypeFor builds the Content-Type sent with the object store PUT.
// The extension is used verbatim, so "photo.JPG" yields "image/jpg".
func ContentTypeFor(filename string) string {
	return "image/" + Extension(filename)
}
