package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"turntable/internal/render"
	"turntable/internal/services"
)

type recordingExecutor struct {
	calls  [][]string
	output string
	err    error
}

func (e *recordingExecutor) Run(_ context.Context, binary string, args []string) (string, error) {
	e.calls = append(e.calls, append([]string{binary}, args...))
	return e.output, e.err
}

func TestSplitCommandLine(t *testing.T) {
	exec := &recordingExecutor{}
	client, err := New("ffmpeg", WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunk := render.Chunk{Index: 2, StartSeconds: 200, DurationSeconds: 82.25}
	if err := client.Split(context.Background(), "/audio/episode.mp3", chunk, "/work/chunk_2.mp3"); err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(exec.calls) != 1 {
		t.Fatalf("call count = %d", len(exec.calls))
	}
	got := strings.Join(exec.calls[0], " ")
	want := "ffmpeg -y -i /audio/episode.mp3 -ss 200 -t 82.25 -c copy /work/chunk_2.mp3"
	if got != want {
		t.Fatalf("command = %q, want %q", got, want)
	}
}

func TestSplitFailureClassifies(t *testing.T) {
	exec := &recordingExecutor{output: "episode.mp3: No such file or directory", err: errors.New("exit status 1")}
	client, _ := New("ffmpeg", WithExecutor(exec))

	err := client.Split(context.Background(), "/audio/episode.mp3", render.Chunk{Index: 0, DurationSeconds: 10}, "/work/chunk_0.mp3")
	if !errors.Is(err, services.ErrSplit) {
		t.Fatalf("error = %v, want ErrSplit", err)
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("command output missing from error: %v", err)
	}
}

func TestConcatWritesOrderedManifest(t *testing.T) {
	dir := t.TempDir()
	exec := &recordingExecutor{}
	client, _ := New("ffmpeg", WithExecutor(exec))

	var manifestBody string
	exec.err = nil
	// Unordered on purpose: the merger owns playback order.
	videos := []ChunkVideo{
		{Index: 2, Path: filepath.Join(dir, "output_chunk_2.mp4")},
		{Index: 0, Path: filepath.Join(dir, "output_chunk_0.mp4")},
		{Index: 1, Path: filepath.Join(dir, "output_chunk_1.mp4")},
	}
	captured := &captureExecutor{inner: exec, capture: func(args []string) {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				body, err := os.ReadFile(args[i+1])
				if err == nil {
					manifestBody = string(body)
				}
			}
		}
	}}
	client, _ = New("ffmpeg", WithExecutor(captured))

	output := filepath.Join(dir, "final.mp4")
	if err := client.Concat(context.Background(), videos, output); err != nil {
		t.Fatalf("Concat: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(manifestBody), "\n")
	if len(lines) != 3 {
		t.Fatalf("manifest lines = %d:\n%s", len(lines), manifestBody)
	}
	for i, line := range lines {
		if !strings.HasSuffix(line, "output_chunk_"+string(rune('0'+i))+".mp4'") {
			t.Fatalf("manifest line %d out of order: %q", i, line)
		}
	}
	if _, err := os.Stat(output + ".concat.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("manifest not removed after merge")
	}
}

type captureExecutor struct {
	inner   *recordingExecutor
	capture func(args []string)
}

func (e *captureExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	e.capture(args)
	return e.inner.Run(ctx, binary, args)
}

func TestConcatRejectsEmptyInput(t *testing.T) {
	client, _ := New("ffmpeg", WithExecutor(&recordingExecutor{}))
	err := client.Concat(context.Background(), nil, "/out/final.mp4")
	if !errors.Is(err, services.ErrMerge) {
		t.Fatalf("error = %v, want ErrMerge", err)
	}
}

func TestWriteConcatManifestEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "list.txt")
	if err := WriteConcatManifest(manifest, []string{filepath.Join(dir, "it's chunk.mp4")}); err != nil {
		t.Fatalf("WriteConcatManifest: %v", err)
	}
	body, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(body), `it'\''s chunk.mp4`) {
		t.Fatalf("quote not escaped: %s", body)
	}
}

func TestParseProgress(t *testing.T) {
	cases := []struct {
		line string
		want time.Duration
		ok   bool
	}{
		{"frame= 100 fps=30 time=00:01:23.45 bitrate=800kbits/s", 83*time.Second + 450*time.Millisecond, true},
		{"time=01:00:00.00 speed=1x", time.Hour, true},
		{"time=05.5", 5*time.Second + 500*time.Millisecond, true},
		{"size=1024KiB time=-00:00:00.02 bitrate=N/A", 0, true},
		{"time=N/A bitrate=N/A", 0, false},
		{"configuration: --enable-gpl", 0, false},
		{"time=bogus", 0, false},
	}
	for _, tc := range cases {
		sample, ok := ParseProgress(tc.line)
		if ok != tc.ok {
			t.Fatalf("ParseProgress(%q) ok = %v, want %v", tc.line, ok, tc.ok)
		}
		if ok && sample.Position != tc.want {
			t.Fatalf("ParseProgress(%q) = %v, want %v", tc.line, sample.Position, tc.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{82.25, "82.25"},
		{100, "100"},
		{0.5, "0.5"},
		{45.125, "45.125"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.in); got != tc.want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
