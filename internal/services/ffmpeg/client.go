package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"turntable/internal/render"
	"turntable/internal/services"
)

// Executor abstracts one-shot command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (output string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithStarter injects a custom encode process starter (primarily for tests).
func WithStarter(start Starter) Option {
	return func(c *Client) {
		if start != nil {
			c.start = start
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   Executor
	start  Starter
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		start:  commandStarter{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Split stream-copies one chunk out of the source audio. No re-encoding
// happens here, so chunk boundaries land on the nearest packet.
func (c *Client) Split(ctx context.Context, audioPath string, chunk render.Chunk, outputPath string) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-ss", strconv.Itoa(chunk.StartSeconds),
		"-t", formatSeconds(chunk.DurationSeconds),
		"-c", "copy",
		outputPath,
	}
	if output, err := c.exec.Run(ctx, c.binary, args); err != nil {
		return services.Wrap(services.ErrSplit, "ffmpeg", "split",
			fmt.Sprintf("chunk %d (%ds+%s)", chunk.Index, chunk.StartSeconds, formatSeconds(chunk.DurationSeconds)),
			fmt.Errorf("%w: %s", err, tail(output)))
	}
	return nil
}

// ChunkVideo pairs an encoded chunk video with its plan index.
type ChunkVideo struct {
	Index int
	Path  string
}

// Concat merges encoded chunk videos with the concat demuxer. Videos are
// referenced in plan-index order no matter how the slice is arranged; the
// manifest is written next to the output and removed afterwards.
func (c *Client) Concat(ctx context.Context, videos []ChunkVideo, outputPath string) error {
	if len(videos) == 0 {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "no chunk videos to merge", nil)
	}

	ordered := append([]ChunkVideo(nil), videos...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	files := make([]string, len(ordered))
	for i, video := range ordered {
		files[i] = video.Path
	}

	manifestPath := outputPath + ".concat.txt"
	if err := WriteConcatManifest(manifestPath, files); err != nil {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "write manifest", err)
	}
	defer os.Remove(manifestPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	}
	if output, err := c.exec.Run(ctx, c.binary, args); err != nil {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "merge chunks",
			fmt.Errorf("%w: %s", err, tail(output)))
	}
	return nil
}

// WriteConcatManifest writes a concat demuxer file list. Paths are made
// absolute and single-quoted, with embedded quotes escaped the way the
// demuxer expects.
func WriteConcatManifest(path string, files []string) error {
	var b strings.Builder
	for _, file := range files {
		absolute, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", file, err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(absolute, "'", `'\''`))
		b.WriteString("'\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// formatSeconds renders a duration argument without trailing zero noise.
func formatSeconds(seconds float64) string {
	trimmed := strings.TrimRight(strings.TrimRight(strconv.FormatFloat(seconds, 'f', 3, 64), "0"), ".")
	if trimmed == "" || trimmed == "-" {
		return "0"
	}
	return trimmed
}

// tail trims command output down to its last few lines for error messages.
func tail(output string) string {
	output = strings.TrimSpace(output)
	lines := strings.Split(output, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	return string(output), err
}
