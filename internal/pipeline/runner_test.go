package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"turntable/internal/config"
	"turntable/internal/journal"
	"turntable/internal/logging"
	"turntable/internal/render"
	"turntable/internal/services"
	"turntable/internal/services/ffmpeg"
)

type fakeProber struct {
	duration float64
	err      error
}

func (p fakeProber) Duration(context.Context, string) (float64, error) {
	return p.duration, p.err
}

type fakeTranscoder struct {
	mu           sync.Mutex
	splitCalls   []render.Chunk
	encodeJobs   []ffmpeg.EncodeJob
	concatVideos []ffmpeg.ChunkVideo

	encodeDelay time.Duration
	encodeErr   error
	failChunk   int // chunk index that fails when encodeErr is set; -1 fails all

	active  int32
	maxSeen int32
}

func (f *fakeTranscoder) Split(_ context.Context, _ string, chunk render.Chunk, outputPath string) error {
	f.mu.Lock()
	f.splitCalls = append(f.splitCalls, chunk)
	f.mu.Unlock()
	return os.WriteFile(outputPath, []byte("audio"), 0o644)
}

func (f *fakeTranscoder) Encode(ctx context.Context, job ffmpeg.EncodeJob) error {
	current := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, current) {
			break
		}
	}
	if f.encodeDelay > 0 {
		select {
		case <-time.After(f.encodeDelay):
		case <-ctx.Done():
			return services.Wrap(services.ErrEncode, "ffmpeg", "encode", "canceled", ctx.Err())
		}
	}

	f.mu.Lock()
	f.encodeJobs = append(f.encodeJobs, job)
	f.mu.Unlock()

	if f.encodeErr != nil {
		if f.failChunk < 0 || strings.Contains(job.OutputPath, chunkVideoName(f.failChunk)) {
			return f.encodeErr
		}
	}
	return os.WriteFile(job.OutputPath, []byte("video"), 0o644)
}

func chunkVideoName(index int) string {
	return "output_chunk_" + string(rune('0'+index)) + ".mp4"
}

func (f *fakeTranscoder) Concat(_ context.Context, videos []ffmpeg.ChunkVideo, outputPath string) error {
	f.mu.Lock()
	f.concatVideos = append([]ffmpeg.ChunkVideo(nil), videos...)
	f.mu.Unlock()
	return os.WriteFile(outputPath, []byte("merged"), 0o644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	font := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(font, []byte("font"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	cfg.Assets.FontFile = font

	background := filepath.Join(dir, "bg.jpg")
	if err := os.WriteFile(background, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write background: %v", err)
	}
	cfg.Assets.FallbackBackground = background

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

func testRequest(t *testing.T, cfg *config.Config) render.Request {
	t.Helper()
	audio := filepath.Join(filepath.Dir(cfg.Paths.WorkDir), "evening_show.mp3")
	if err := os.WriteFile(audio, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	profile, err := render.ResolveProfile(cfg, "fast")
	if err != nil {
		t.Fatalf("resolve profile: %v", err)
	}
	return render.Request{
		AudioPath:  audio,
		OutputPath: filepath.Join(cfg.Paths.OutputDir, "evening_show.mp4"),
		Profile:    profile,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, transcoder *fakeTranscoder, prober fakeProber, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithTranscoder(transcoder), WithProber(prober)}, opts...)
	runner, err := New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return runner
}

func TestRenderSuccess(t *testing.T) {
	cfg := testConfig(t)
	transcoder := &fakeTranscoder{}
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	runner := newTestRunner(t, cfg, transcoder, fakeProber{duration: 250}, WithJournal(store))
	req := testRequest(t, cfg)

	output, err := runner.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if output != req.OutputPath {
		t.Fatalf("output = %q, want %q", output, req.OutputPath)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("final video missing: %v", err)
	}

	// 250s at a 120s target gives 3 chunks, split then merged in order.
	if len(transcoder.splitCalls) != 3 {
		t.Fatalf("split calls = %d, want 3", len(transcoder.splitCalls))
	}
	if len(transcoder.concatVideos) != 3 {
		t.Fatalf("concat videos = %d, want 3", len(transcoder.concatVideos))
	}
	for i, video := range transcoder.concatVideos {
		if video.Index != i || !strings.HasSuffix(video.Path, chunkVideoName(i)) {
			t.Fatalf("concat video %d = %+v", i, video)
		}
	}

	// Work directory is gone after success.
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned: %v", entries)
	}

	records, err := store.List(context.Background(), 5)
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if len(records) != 1 || records[0].Status != journal.StatusSucceeded {
		t.Fatalf("journal records = %+v", records)
	}
	if records[0].ChunkCount != 3 || records[0].DurationSeconds != 250 {
		t.Fatalf("plan not journaled: %+v", records[0])
	}
}

func TestRenderFillsRequestDefaults(t *testing.T) {
	cfg := testConfig(t)
	transcoder := &fakeTranscoder{}
	runner := newTestRunner(t, cfg, transcoder, fakeProber{duration: 60})
	req := testRequest(t, cfg)

	if _, err := runner.Render(context.Background(), req); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(transcoder.encodeJobs) == 0 {
		t.Fatal("no encode jobs")
	}
	job := transcoder.encodeJobs[0]
	if !strings.Contains(job.FilterGraph, "Evening Show") {
		t.Fatalf("derived title missing from filter graph:\n%s", job.FilterGraph)
	}
	if !strings.Contains(job.FilterGraph, "Turntable Review") {
		t.Fatalf("configured channel name missing from filter graph:\n%s", job.FilterGraph)
	}
	if job.BackgroundPath != cfg.Assets.FallbackBackground {
		t.Fatalf("fallback background not applied: %q", job.BackgroundPath)
	}
	// With no disc image configured the background doubles as artwork.
	if job.DiscPath != cfg.Assets.FallbackBackground {
		t.Fatalf("disc path = %q", job.DiscPath)
	}
}

func TestRenderPreconditionsBeforeAnyState(t *testing.T) {
	cfg := testConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()
	runner := newTestRunner(t, cfg, &fakeTranscoder{}, fakeProber{duration: 100}, WithJournal(store))

	req := testRequest(t, cfg)
	req.AudioPath = filepath.Join(cfg.Paths.WorkDir, "missing.mp3")

	_, err = runner.Render(context.Background(), req)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("error = %v, want ErrPrecondition", err)
	}

	entries, readErr := os.ReadDir(cfg.Paths.WorkDir)
	if readErr != nil {
		t.Fatalf("read work dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir touched before preconditions passed: %v", entries)
	}
	records, listErr := store.List(context.Background(), 5)
	if listErr != nil {
		t.Fatalf("journal list: %v", listErr)
	}
	if len(records) != 0 {
		t.Fatalf("failed preconditions were journaled: %+v", records)
	}
}

func TestRenderEncodeFailureJournaled(t *testing.T) {
	cfg := testConfig(t)
	stallErr := services.Wrap(services.ErrEncodeStall, "ffmpeg", "encode", "no progress within 30s", nil)
	transcoder := &fakeTranscoder{encodeErr: stallErr, failChunk: -1}
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()
	runner := newTestRunner(t, cfg, transcoder, fakeProber{duration: 250}, WithJournal(store))
	req := testRequest(t, cfg)

	_, err = runner.Render(context.Background(), req)
	if !errors.Is(err, services.ErrEncodeStall) {
		t.Fatalf("error = %v, want ErrEncodeStall", err)
	}
	if _, statErr := os.Stat(req.OutputPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("output published despite encode failure")
	}

	entries, readErr := os.ReadDir(cfg.Paths.WorkDir)
	if readErr != nil {
		t.Fatalf("read work dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned after failure: %v", entries)
	}

	records, listErr := store.List(context.Background(), 5)
	if listErr != nil {
		t.Fatalf("journal list: %v", listErr)
	}
	if len(records) != 1 || records[0].Status != journal.StatusFailed {
		t.Fatalf("journal records = %+v", records)
	}
	if records[0].FailureKind != "stall" {
		t.Fatalf("failure kind = %q, want stall", records[0].FailureKind)
	}
}

func TestRenderProbeFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := newTestRunner(t, cfg, &fakeTranscoder{}, fakeProber{err: errors.New("no usable duration")})
	req := testRequest(t, cfg)

	_, err := runner.Render(context.Background(), req)
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("error = %v, want ErrProbe", err)
	}
}

func TestRenderPlanFailureNotAProbeError(t *testing.T) {
	cfg := testConfig(t)
	// The probe succeeds but reports an unusable duration, so planning fails.
	runner := newTestRunner(t, cfg, &fakeTranscoder{}, fakeProber{duration: 0})
	req := testRequest(t, cfg)

	_, err := runner.Render(context.Background(), req)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("error = %v, want ErrPrecondition", err)
	}
	if errors.Is(err, services.ErrProbe) {
		t.Fatalf("plan failure classified as probe: %v", err)
	}
}

func TestRenderOutputLocked(t *testing.T) {
	cfg := testConfig(t)
	runner := newTestRunner(t, cfg, &fakeTranscoder{}, fakeProber{duration: 100})
	req := testRequest(t, cfg)

	other := flock.New(req.OutputPath + ".lock")
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire competing lock: locked=%v err=%v", locked, err)
	}
	defer other.Unlock()

	_, err = runner.Render(context.Background(), req)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("error = %v, want ErrPrecondition", err)
	}
	if !strings.Contains(err.Error(), "lock") {
		t.Fatalf("error does not mention lock: %v", err)
	}
}

func TestRenderBoundsWorkerPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Profiles = map[string]config.ProfileOverride{
		"fast": {Threads: 2, MaxChunks: 5},
	}
	transcoder := &fakeTranscoder{encodeDelay: 30 * time.Millisecond}
	runner := newTestRunner(t, cfg, transcoder, fakeProber{duration: 600})

	req := testRequest(t, cfg)
	profile, err := render.ResolveProfile(cfg, "fast")
	if err != nil {
		t.Fatalf("resolve profile: %v", err)
	}
	req.Profile = profile

	if _, err := runner.Render(context.Background(), req); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(transcoder.encodeJobs) != 5 {
		t.Fatalf("encode jobs = %d, want 5", len(transcoder.encodeJobs))
	}
	if max := atomic.LoadInt32(&transcoder.maxSeen); max > 2 {
		t.Fatalf("concurrent encodes = %d, exceeds pool size 2", max)
	}
}

func TestCleanIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "render-x")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	logger := logging.NewNop()

	Clean(logger, dir)
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("work dir still present after clean")
	}
	// Second clean of a missing directory is a no-op.
	Clean(logger, dir)
	Clean(logger, "")
}
