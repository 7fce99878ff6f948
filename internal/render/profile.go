package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"turntable/internal/config"
)

// VisualizerStyle describes the circular audio visualizer drawn over the
// background image. The waveform is rendered into a Size x Size square and
// masked down to a circle of Radius pixels around the square's center.
type VisualizerStyle struct {
	Size   int
	Radius int
	Color  string
}

// DiscStyle describes the small rotating artwork disc. RotationSpeed is in
// radians per second of presentation time.
type DiscStyle struct {
	Size          int
	MaskRadius    int
	RotationSpeed float64
}

// TextStyle positions one of the text overlays. Y is an ffmpeg position
// expression, so values like "h-40" anchor relative to the frame height.
type TextStyle struct {
	FontSize  int
	Y         string
	BoxBorder int
}

// Profile is the complete, immutable parameter set for a render. Profiles
// are passed by value; resolving config overrides produces a new Profile
// rather than mutating a shared one.
type Profile struct {
	Name string

	Width        int
	Height       int
	FPS          int
	CRF          int
	Preset       string
	AudioBitrate string

	TargetChunkSeconds int
	MaxChunks          int
	Threads            int

	// Supervision limits for a single chunk encode.
	TimeoutFactor float64
	TimeoutFloor  time.Duration
	StallWindow   time.Duration

	Visualizer VisualizerStyle
	Disc       DiscStyle
	Title      TextStyle
	Date       TextStyle
	Channel    TextStyle
}

// HardTimeout returns the wall-clock limit for encoding a chunk of the
// given duration. The factor scales with chunk length so long chunks get
// proportionally more time, and the floor keeps very short chunks from
// being killed during encoder startup.
func (p Profile) HardTimeout(chunkDuration time.Duration) time.Duration {
	limit := time.Duration(p.TimeoutFactor * float64(chunkDuration))
	if limit < p.TimeoutFloor {
		return p.TimeoutFloor
	}
	return limit
}

func qualityProfile() Profile {
	return Profile{
		Name:               "quality",
		Width:              1280,
		Height:             720,
		FPS:                30,
		CRF:                20,
		Preset:             "medium",
		AudioBitrate:       "192k",
		TargetChunkSeconds: 120,
		MaxChunks:          5,
		Threads:            2,
		TimeoutFactor:      5.0,
		TimeoutFloor:       120 * time.Second,
		StallWindow:        60 * time.Second,
		Visualizer:         VisualizerStyle{Size: 600, Radius: 250, Color: "white"},
		Disc:               DiscStyle{Size: 100, MaskRadius: 45, RotationSpeed: 1.0},
		Title:              TextStyle{FontSize: 48, Y: "30", BoxBorder: 2},
		Date:               TextStyle{FontSize: 36, Y: "80", BoxBorder: 4},
		Channel:            TextStyle{FontSize: 60, Y: "h-40", BoxBorder: 4},
	}
}

func fastProfile() Profile {
	return Profile{
		Name:               "fast",
		Width:              640,
		Height:             360,
		FPS:                30,
		CRF:                28,
		Preset:             "veryfast",
		AudioBitrate:       "128k",
		TargetChunkSeconds: 120,
		MaxChunks:          5,
		Threads:            2,
		TimeoutFactor:      2.0,
		TimeoutFloor:       120 * time.Second,
		StallWindow:        30 * time.Second,
		Visualizer:         VisualizerStyle{Size: 300, Radius: 125, Color: "white"},
		Disc:               DiscStyle{Size: 50, MaskRadius: 22, RotationSpeed: 1.0},
		Title:              TextStyle{FontSize: 24, Y: "15", BoxBorder: 2},
		Date:               TextStyle{FontSize: 18, Y: "40", BoxBorder: 2},
		Channel:            TextStyle{FontSize: 30, Y: "h-20", BoxBorder: 2},
	}
}

func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		"quality": qualityProfile(),
		"fast":    fastProfile(),
	}
}

// ProfileNames lists the built-in profile names in sorted order.
func ProfileNames() []string {
	builtins := builtinProfiles()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveProfile looks up a built-in profile by name and layers any
// configured overrides on top of it. An empty name selects the configured
// default profile.
func ResolveProfile(cfg *config.Config, name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = cfg.Render.DefaultProfile
	}

	profile, ok := builtinProfiles()[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown render profile %q (available: %s)", name, strings.Join(ProfileNames(), ", "))
	}

	if override, ok := cfg.Profiles[name]; ok {
		profile = applyOverride(profile, override)
	}
	return profile, nil
}

func applyOverride(p Profile, o config.ProfileOverride) Profile {
	if o.Width > 0 {
		p.Width = o.Width
	}
	if o.Height > 0 {
		p.Height = o.Height
	}
	if o.FPS > 0 {
		p.FPS = o.FPS
	}
	if o.CRF > 0 {
		p.CRF = o.CRF
	}
	if o.AudioBitrate != "" {
		p.AudioBitrate = o.AudioBitrate
	}
	if o.Preset != "" {
		p.Preset = o.Preset
	}
	if o.TargetChunkSeconds > 0 {
		p.TargetChunkSeconds = o.TargetChunkSeconds
	}
	if o.MaxChunks > 0 {
		p.MaxChunks = o.MaxChunks
	}
	if o.Threads > 0 {
		p.Threads = o.Threads
	}
	if o.TimeoutFactor > 0 {
		p.TimeoutFactor = o.TimeoutFactor
	}
	if o.TimeoutFloor > 0 {
		p.TimeoutFloor = time.Duration(o.TimeoutFloor) * time.Second
	}
	if o.StallWindow > 0 {
		p.StallWindow = time.Duration(o.StallWindow) * time.Second
	}
	return p
}
