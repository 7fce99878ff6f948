package filtergraph

import (
	"errors"
	"fmt"
	"strings"

	"turntable/internal/render"
)

// Input indices the generated graph expects on the ffmpeg command line.
const (
	InputDisc       = 0 // looped disc artwork image
	InputAudio      = 1 // chunk audio
	InputBackground = 2 // looped background image
)

// OutputLabel names the final video stream of the graph.
const OutputLabel = "out"

// Params carries everything the graph depends on for one chunk.
type Params struct {
	Profile render.Profile

	Title       string
	DateText    string
	ChannelName string
	FontFile    string

	// DurationSeconds is the chunk duration, used to place the fade out.
	DurationSeconds float64
}

// Build assembles the filter_complex string. Stages are emitted in
// dependency order and joined with ';' exactly as ffmpeg expects.
func Build(p Params) (string, error) {
	if p.DurationSeconds <= 0 {
		return "", fmt.Errorf("filter graph: duration %.2fs is not positive", p.DurationSeconds)
	}
	if p.FontFile == "" {
		return "", errors.New("filter graph: no font file resolved")
	}

	title, err := Drawtext(p.Title)
	if err != nil {
		return "", fmt.Errorf("filter graph: title: %w", err)
	}
	dateText, err := Drawtext(p.DateText)
	if err != nil {
		return "", fmt.Errorf("filter graph: date: %w", err)
	}
	channel, err := Drawtext(p.ChannelName)
	if err != nil {
		return "", fmt.Errorf("filter graph: channel: %w", err)
	}
	// Font paths can carry filter-significant characters too.
	fontFile, err := Drawtext(p.FontFile)
	if err != nil {
		return "", fmt.Errorf("filter graph: font path: %w", err)
	}

	prof := p.Profile
	vis := prof.Visualizer
	disc := prof.Disc

	fadeOutStart := p.DurationSeconds - 3
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}

	var g graph

	// Background scaled to the output frame.
	g.add("[%d:v]scale=%d:%d[bg]", InputBackground, prof.Width, prof.Height)

	// Waveform rendered into a square canvas.
	g.add("[%d:a]aformat=channel_layouts=stereo,showwaves=mode=cline:s=%dx%d:colors=%s[wave]",
		InputAudio, vis.Size, vis.Size, vis.Color)

	// Circular alpha mask cut from a grayscale canvas.
	g.add("color=s=%dx%d:c=black@0,format=gray,%s[wave_mask]",
		vis.Size, vis.Size, circleMask(vis.Size/2, vis.Radius))
	g.add("[wave][wave_mask]alphamerge[wave_circ]")
	g.add("[bg][wave_circ]overlay=x=(W-%d)/2:y=(H-%d)/2[bg_wave]", vis.Size, vis.Size)

	// Disc artwork: scale, mask to a circle, spin.
	g.add("[%d:v]scale=%d:%d,format=rgba[disc_scaled]", InputDisc, disc.Size, disc.Size)
	g.add("color=s=%dx%d:c=black,format=gray,%s[disc_mask]",
		disc.Size, disc.Size, circleMask(disc.Size/2, disc.MaskRadius))
	g.add("[disc_scaled][disc_mask]alphamerge[disc_circ]")
	g.add("[disc_circ]rotate=t*%s:c=none[disc_rot]", formatFloat(disc.RotationSpeed))
	g.add("[bg_wave][disc_rot]overlay=x=(W-%d)/2:y=(H-%d)/2[with_disc]", disc.Size, disc.Size)

	// One-second fade in, three-second fade out against the chunk end.
	g.add("[with_disc]fade=in:0:%d,fade=out:st=%s:d=3[faded]", prof.FPS, formatFloat(fadeOutStart))

	g.add("[faded]%s[with_title]", drawtext(title, fontFile, prof.Title))
	g.add("[with_title]%s[with_date]", drawtext(dateText, fontFile, prof.Date))
	g.add("[with_date]%s[%s]", drawtext(channel, fontFile, prof.Channel), OutputLabel)

	return g.String(), nil
}

type graph struct {
	stages []string
}

func (g *graph) add(format string, args ...any) {
	g.stages = append(g.stages, fmt.Sprintf(format, args...))
}

func (g *graph) String() string {
	return strings.Join(g.stages, ";")
}

// circleMask produces a geq expression that is opaque inside the circle of
// the given radius around (center, center) and transparent outside it.
func circleMask(center, radius int) string {
	return fmt.Sprintf("geq='lum=if(lt((X-%d)*(X-%d)+(Y-%d)*(Y-%d),%d*%d),255,0)'",
		center, center, center, center, radius, radius)
}

func drawtext(escapedText, escapedFontFile string, style render.TextStyle) string {
	return fmt.Sprintf("drawtext=text='%s':fontfile='%s':fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=%s:box=1:boxcolor=black@0.6:boxborderw=%d",
		escapedText, escapedFontFile, style.FontSize, style.Y, style.BoxBorder)
}

func formatFloat(value float64) string {
	trimmed := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	if trimmed == "" || trimmed == "-" {
		return "0"
	}
	return trimmed
}
