package render

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Request describes one complete render: the source audio, the artwork
// inputs, the destination path, and the text drawn onto the frame. All
// paths are absolute by the time a Request reaches the pipeline.
type Request struct {
	AudioPath      string
	BackgroundPath string
	DiscPath       string
	OutputPath     string

	Title       string
	ChannelName string
	RenderDate  time.Time
	DateFormat  string

	Profile Profile
}

// DateText formats the render date for the date overlay.
func (r Request) DateText() string {
	layout := r.DateFormat
	if layout == "" {
		layout = "January 2, 2006"
	}
	date := r.RenderDate
	if date.IsZero() {
		date = time.Now()
	}
	return date.Format(layout)
}

var titleCaser = cases.Title(language.English)

// DeriveTitle builds a display title from an audio file name when the
// caller did not provide one: "brahmamudi_episode-recap.mp3" becomes
// "Brahmamudi Episode Recap".
func DeriveTitle(audioPath string) string {
	base := filepath.Base(audioPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	return titleCaser.String(base)
}
