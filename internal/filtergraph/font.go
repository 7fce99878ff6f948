package filtergraph

import (
	"errors"
	"fmt"
	"os"
)

// fontSearchPaths are tried in order when no font is configured.
var fontSearchPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Verdana.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	`C:\Windows\Fonts\verdana.ttf`,
}

// FindFont resolves the font file for text overlays. A configured path must
// exist; with no configuration the common system font locations are
// searched.
func FindFont(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured font %q: %w", configured, err)
		}
		return configured, nil
	}
	for _, candidate := range fontSearchPaths {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.New("no usable system font found; set assets.font_file")
}
