package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// maxStemLength bounds sanitized stems so timestamp prefixes and stage
// suffixes still fit comfortably in a filename.
const maxStemLength = 100

// SanitizeStem converts an arbitrary title (e.g. from a video platform) into
// a filesystem-safe filename stem. Unsafe characters become dashes or are
// dropped, control characters are removed, and the result is length-limited
// and trimmed of trailing dots and whitespace.
func SanitizeStem(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	name = fileNameReplacer.Replace(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()

	if len(name) > maxStemLength {
		name = name[:maxStemLength]
	}
	name = strings.TrimRight(strings.TrimSpace(name), ".")
	if name == "" {
		return "untitled"
	}
	return name
}
