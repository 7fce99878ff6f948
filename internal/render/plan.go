package render

import (
	"fmt"
	"math"
	"time"
)

// Chunk is one segment of the source audio. StartSeconds and
// DurationSeconds are whole seconds so they can be handed to the splitter
// verbatim; the final chunk absorbs the fractional remainder.
type Chunk struct {
	Index           int
	StartSeconds    int
	DurationSeconds float64
}

// Duration returns the chunk length as a time.Duration.
func (c Chunk) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}

// Plan divides a track of the given total duration into chunks. The chunk
// count is ceil(total/target) capped at the profile's MaxChunks, and the
// per-chunk duration is recomputed so the chunks come out evenly sized
// instead of leaving a short tail.
func Plan(totalSeconds float64, profile Profile) ([]Chunk, error) {
	if totalSeconds <= 0 {
		return nil, fmt.Errorf("plan chunks: track duration %.2fs is not positive", totalSeconds)
	}
	if profile.TargetChunkSeconds <= 0 {
		return nil, fmt.Errorf("plan chunks: profile %q has no target chunk duration", profile.Name)
	}

	count := int(math.Ceil(totalSeconds / float64(profile.TargetChunkSeconds)))
	if profile.MaxChunks > 0 && count > profile.MaxChunks {
		count = profile.MaxChunks
	}
	if count < 1 {
		count = 1
	}

	per := int(math.Ceil(totalSeconds / float64(count)))
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := i * per
		if float64(start) >= totalSeconds {
			break
		}
		duration := float64(per)
		if remaining := totalSeconds - float64(start); remaining < duration {
			duration = remaining
		}
		chunks = append(chunks, Chunk{
			Index:           i,
			StartSeconds:    start,
			DurationSeconds: duration,
		})
	}
	return chunks, nil
}
