package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"turntable/internal/filtergraph"
	"turntable/internal/render"
	"turntable/internal/services"
)

// EncodeJob describes one chunk encode.
type EncodeJob struct {
	DiscPath       string
	AudioPath      string
	BackgroundPath string
	OutputPath     string

	// FilterGraph must end at the [out] label.
	FilterGraph string

	Profile       render.Profile
	ChunkDuration time.Duration

	// OnProgress receives decoded progress samples. Optional.
	OnProgress func(ProgressSample)
}

// Starter launches an encode process whose stderr is streamed line by line.
type Starter interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// Process is a running encode under watchdog supervision.
type Process interface {
	// Lines streams stderr lines and is closed at EOF.
	Lines() <-chan string
	// Wait blocks until the process exits. Called at most once.
	Wait() error
	// Kill force-terminates the process. Wait still returns afterwards.
	Kill() error
}

// Encode runs one chunk encode under watchdog supervision. Three things
// end an encode early, each with its own sentinel: the hard timeout
// derived from the chunk duration, a stall (no progress report within the
// profile's stall window), and context cancellation. A nonzero exit
// surfaces as ErrEncodeExit with the tail of stderr attached.
func (c *Client) Encode(ctx context.Context, job EncodeJob) error {
	if job.ChunkDuration <= 0 {
		return services.Wrap(services.ErrEncode, "ffmpeg", "encode", "chunk duration not positive", nil)
	}

	proc, err := c.start.Start(ctx, c.binary, encodeArgs(job))
	if err != nil {
		return services.Wrap(services.ErrEncode, "ffmpeg", "encode", "start process", err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	hardLimit := job.Profile.HardTimeout(job.ChunkDuration)
	hard := time.NewTimer(hardLimit)
	defer hard.Stop()
	stall := time.NewTimer(job.Profile.StallWindow)
	defer stall.Stop()

	var stderrTail []string
	lines := proc.Lines()

	for {
		select {
		case err := <-done:
			if err != nil {
				return services.Wrap(services.ErrEncodeExit, "ffmpeg", "encode", "",
					fmt.Errorf("%w: %s", err, strings.Join(stderrTail, " | ")))
			}
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			stderrTail = appendTail(stderrTail, line)
			if sample, ok := ParseProgress(line); ok {
				resetTimer(stall, job.Profile.StallWindow)
				if job.OnProgress != nil {
					job.OnProgress(sample)
				}
			}

		case <-hard.C:
			_ = proc.Kill()
			awaitExit(done, lines)
			return services.Wrap(services.ErrEncodeTimeout, "ffmpeg", "encode",
				fmt.Sprintf("no completion within %s", hardLimit), nil)

		case <-stall.C:
			_ = proc.Kill()
			awaitExit(done, lines)
			return services.Wrap(services.ErrEncodeStall, "ffmpeg", "encode",
				fmt.Sprintf("no progress within %s", job.Profile.StallWindow), nil)

		case <-ctx.Done():
			_ = proc.Kill()
			awaitExit(done, lines)
			return services.Wrap(services.ErrEncode, "ffmpeg", "encode", "canceled", ctx.Err())
		}
	}
}

// awaitExit keeps draining stderr while waiting for a killed process to
// exit. The pipe can still hold buffered output after the kill; without a
// reader the scanner would block and Wait would never return.
func awaitExit(done <-chan error, lines <-chan string) {
	for {
		select {
		case <-done:
			return
		case _, ok := <-lines:
			if !ok {
				lines = nil
			}
		}
	}
}

func encodeArgs(job EncodeJob) []string {
	p := job.Profile
	return []string{
		"-y",
		"-loop", "1",
		"-i", job.DiscPath,
		"-i", job.AudioPath,
		"-loop", "1",
		"-i", job.BackgroundPath,
		"-filter_complex", job.FilterGraph,
		"-map", "[" + filtergraph.OutputLabel + "]",
		"-map", fmt.Sprintf("%d:a", filtergraph.InputAudio),
		"-c:v", "libx264",
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-threads", strconv.Itoa(p.Threads),
		"-shortest",
		"-pix_fmt", "yuv420p",
		job.OutputPath,
	}
}

func appendTail(tail []string, line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return tail
	}
	tail = append(tail, line)
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	return tail
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

type commandStarter struct{}

func (commandStarter) Start(ctx context.Context, binary string, args []string) (Process, error) {
	// The watchdog owns termination, so the command is deliberately not
	// bound to ctx here.
	cmd := exec.Command(binary, args...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	proc := &execProcess{
		cmd:   cmd,
		lines: make(chan string, 64),
	}
	proc.wg.Add(1)
	go func() {
		defer proc.wg.Done()
		defer close(proc.lines)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanCRLines)
		for scanner.Scan() {
			proc.lines <- scanner.Text()
		}
	}()
	return proc, nil
}

// scanCRLines splits on both \n and \r. ffmpeg rewrites its progress line
// in place with bare carriage returns, so a newline-only split would never
// surface a time= marker until the encode ends.
func scanCRLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	lines chan string
	wg    sync.WaitGroup
}

func (p *execProcess) Lines() <-chan string { return p.lines }

func (p *execProcess) Wait() error {
	// Drain stderr before Wait closes the pipe under the scanner.
	p.wg.Wait()
	return p.cmd.Wait()
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return errors.New("process not started")
	}
	return p.cmd.Process.Kill()
}
