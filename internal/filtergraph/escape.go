package filtergraph

import (
	"fmt"
	"strings"
	"unicode"
)

// drawtextSpecials are significant to either the filter graph parser or
// the drawtext option parser and must be backslash-escaped in text values.
const drawtextSpecials = `\':%,;[]=`

// Drawtext escapes a text value for embedding in a drawtext filter. Control
// characters (including newlines) are rejected rather than escaped; overlay
// text is single-line by construction.
func Drawtext(text string) (string, error) {
	for _, r := range text {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("drawtext value %q contains control character %U", text, r)
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(drawtextSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
