package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// ProgressSample is one decoded progress report from the encoder.
type ProgressSample struct {
	Position time.Duration
}

// ParseProgress extracts the output position from an ffmpeg stderr line.
// Progress lines look like:
//
//	frame= 1234 fps= 29 q=23.0 size=    2048KiB time=00:01:23.45 bitrate= 201.5kbits/s speed=1.02x
//
// The time field is a colon-separated clock; segments are summed from the
// right with successive factors of 60 so "MM:SS" and "HH:MM:SS" both work.
func ParseProgress(line string) (ProgressSample, bool) {
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return ProgressSample{}, false
	}
	rest := line[idx+len("time="):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ProgressSample{}, false
	}
	clock := fields[0]
	if clock == "N/A" {
		return ProgressSample{}, false
	}

	negative := strings.HasPrefix(clock, "-")
	clock = strings.TrimPrefix(clock, "-")

	segments := strings.Split(clock, ":")
	var seconds float64
	factor := 1.0
	for i := len(segments) - 1; i >= 0; i-- {
		value, err := strconv.ParseFloat(segments[i], 64)
		if err != nil {
			return ProgressSample{}, false
		}
		seconds += value * factor
		factor *= 60
	}
	if negative {
		// ffmpeg reports a small negative time before the first frame.
		seconds = 0
	}
	return ProgressSample{Position: time.Duration(seconds * float64(time.Second))}, true
}
