package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"turntable/internal/config"
	"turntable/internal/filtergraph"
	"turntable/internal/journal"
	"turntable/internal/logging"
	"turntable/internal/media/ffprobe"
	"turntable/internal/render"
	"turntable/internal/services"
	"turntable/internal/services/ffmpeg"
)

// Transcoder is the ffmpeg surface the pipeline drives.
type Transcoder interface {
	Split(ctx context.Context, audioPath string, chunk render.Chunk, outputPath string) error
	Encode(ctx context.Context, job ffmpeg.EncodeJob) error
	Concat(ctx context.Context, videos []ffmpeg.ChunkVideo, outputPath string) error
}

// MediaProber reads the duration of an audio file.
type MediaProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Option configures the runner.
type Option func(*Runner)

// WithTranscoder injects a custom transcoder (primarily for tests).
func WithTranscoder(t Transcoder) Option {
	return func(r *Runner) {
		if t != nil {
			r.transcoder = t
		}
	}
}

// WithProber injects a custom prober (primarily for tests).
func WithProber(p MediaProber) Option {
	return func(r *Runner) {
		if p != nil {
			r.prober = p
		}
	}
}

// WithJournal attaches an attempt journal. Without one the pipeline runs
// unrecorded.
func WithJournal(store *journal.Store) Option {
	return func(r *Runner) {
		r.journal = store
	}
}

// Runner executes renders.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	transcoder Transcoder
	prober     MediaProber
	journal    *journal.Store
}

// New constructs a Runner backed by the real ffmpeg toolchain.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client, err := ffmpeg.New(cfg.FFmpegBinary())
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	runner := &Runner{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		transcoder: client,
		prober:     ffprobeProber{binary: cfg.FFprobeBinary()},
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return 0, err
	}
	return result.Duration()
}

// Render runs one complete render and returns the final output path.
func (r *Runner) Render(ctx context.Context, req render.Request) (string, error) {
	req, fontFile, err := r.checkPreconditions(req)
	if err != nil {
		return "", err
	}

	renderID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRenderID, renderID))
	logger.Info("render started",
		logging.String("audio", req.AudioPath),
		logging.String("output", req.OutputPath),
		logging.String("profile", req.Profile.Name))

	attempt := r.beginAttempt(ctx, logger, renderID, req)

	lock := flock.New(req.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err == nil && !locked {
		err = fmt.Errorf("output %s is locked by another render", req.OutputPath)
	}
	if err != nil {
		err = services.Wrap(services.ErrPrecondition, "pipeline", "lock", "", err)
		r.finishAttempt(ctx, logger, attempt, err)
		return "", err
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	outputPath, err := r.run(ctx, logger, renderID, req, fontFile, attempt)
	r.finishAttempt(ctx, logger, attempt, err)
	if err != nil {
		return "", err
	}
	logger.Info("render finished", logging.String("output", outputPath))
	return outputPath, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, renderID string, req render.Request, fontFile string, attempt *journal.Record) (string, error) {
	duration, err := r.prober.Duration(ctx, req.AudioPath)
	if err != nil {
		return "", services.Wrap(services.ErrProbe, "pipeline", "probe", req.AudioPath, err)
	}

	chunks, err := render.Plan(duration, req.Profile)
	if err != nil {
		return "", services.Wrap(services.ErrPrecondition, "pipeline", "plan", "", err)
	}
	logger.Info("chunk plan ready",
		logging.Float64("duration_seconds", duration),
		logging.Int("chunks", len(chunks)))
	r.recordPlan(ctx, logger, attempt, duration, len(chunks))

	workDir := filepath.Join(r.cfg.Paths.WorkDir, "render-"+renderID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPrecondition, "pipeline", "workdir", workDir, err)
	}
	defer Clean(logger, workDir)

	artifacts, err := r.splitChunks(ctx, logger, req, chunks, workDir, attempt)
	if err != nil {
		return "", err
	}

	if err := r.encodeChunks(ctx, logger, req, fontFile, artifacts, attempt); err != nil {
		return "", err
	}

	return r.merge(ctx, logger, req, artifacts, workDir, attempt)
}

func (r *Runner) splitChunks(ctx context.Context, logger *slog.Logger, req render.Request, chunks []render.Chunk, workDir string, attempt *journal.Record) ([]*render.ChunkArtifact, error) {
	r.setStatus(ctx, logger, attempt, journal.StatusSplitting)

	ext := filepath.Ext(req.AudioPath)
	if ext == "" {
		ext = ".mp3"
	}

	artifacts := make([]*render.ChunkArtifact, len(chunks))
	for i, chunk := range chunks {
		artifact := &render.ChunkArtifact{
			Chunk:     chunk,
			AudioPath: filepath.Join(workDir, fmt.Sprintf("chunk_%d%s", chunk.Index, ext)),
			VideoPath: filepath.Join(workDir, fmt.Sprintf("output_chunk_%d.mp4", chunk.Index)),
			State:     render.ChunkSplitting,
		}
		logger.Debug("splitting chunk",
			logging.Int(logging.FieldChunk, chunk.Index),
			logging.Int("start_seconds", chunk.StartSeconds))
		if err := r.transcoder.Split(ctx, req.AudioPath, chunk, artifact.AudioPath); err != nil {
			artifact.State = render.ChunkFailed
			artifact.Err = err
			return nil, err
		}
		artifact.State = render.ChunkPending
		artifacts[i] = artifact
	}
	return artifacts, nil
}

func (r *Runner) merge(ctx context.Context, logger *slog.Logger, req render.Request, artifacts []*render.ChunkArtifact, workDir string, attempt *journal.Record) (string, error) {
	r.setStatus(ctx, logger, attempt, journal.StatusMerging)

	videos := make([]ffmpeg.ChunkVideo, len(artifacts))
	for i, artifact := range artifacts {
		videos[i] = ffmpeg.ChunkVideo{Index: artifact.Chunk.Index, Path: artifact.VideoPath}
	}

	merged := filepath.Join(workDir, "final.mp4")
	if err := r.transcoder.Concat(ctx, videos, merged); err != nil {
		return "", err
	}
	if err := moveFile(merged, req.OutputPath); err != nil {
		return "", services.Wrap(services.ErrMerge, "pipeline", "publish", req.OutputPath, err)
	}
	return req.OutputPath, nil
}

// moveFile renames when possible and falls back to copy+remove for
// cross-filesystem moves.
func moveFile(source, destination string) error {
	if err := os.Rename(source, destination); err == nil {
		return nil
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(destination)
		return fmt.Errorf("copy to %s: %w", destination, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destination, err)
	}
	return os.Remove(source)
}

// checkPreconditions resolves defaults and verifies every input before any
// filesystem state is created. The resolved request and font path come
// back so the rest of the run never re-resolves.
func (r *Runner) checkPreconditions(req render.Request) (render.Request, string, error) {
	fail := func(operation, message string, err error) (render.Request, string, error) {
		return render.Request{}, "", services.Wrap(services.ErrPrecondition, "pipeline", operation, message, err)
	}

	if req.AudioPath == "" {
		return fail("preconditions", "audio path required", nil)
	}
	if err := checkRegularFile(req.AudioPath); err != nil {
		return fail("preconditions", "audio file", err)
	}

	if req.BackgroundPath == "" {
		req.BackgroundPath = r.cfg.Assets.FallbackBackground
	}
	if req.BackgroundPath == "" {
		return fail("preconditions", "no background image given and assets.fallback_background is unset", nil)
	}
	if err := checkRegularFile(req.BackgroundPath); err != nil {
		return fail("preconditions", "background image", err)
	}

	if req.DiscPath == "" {
		req.DiscPath = r.cfg.Assets.DiscImage
	}
	if req.DiscPath == "" {
		// The background doubles as disc artwork when nothing better
		// is configured.
		req.DiscPath = req.BackgroundPath
	}
	if err := checkRegularFile(req.DiscPath); err != nil {
		return fail("preconditions", "disc image", err)
	}

	fontFile, err := filtergraph.FindFont(r.cfg.Assets.FontFile)
	if err != nil {
		return fail("preconditions", "font", err)
	}

	if req.OutputPath == "" {
		return fail("preconditions", "output path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fail("preconditions", "output directory", err)
	}

	if req.Title == "" {
		req.Title = render.DeriveTitle(req.AudioPath)
	}
	if req.ChannelName == "" {
		req.ChannelName = r.cfg.Branding.ChannelName
	}
	if req.DateFormat == "" {
		req.DateFormat = r.cfg.Branding.DateFormat
	}
	if req.RenderDate.IsZero() {
		req.RenderDate = time.Now()
	}

	return req, fontFile, nil
}

func checkRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func (r *Runner) beginAttempt(ctx context.Context, logger *slog.Logger, renderID string, req render.Request) *journal.Record {
	if r.journal == nil {
		return nil
	}
	attempt, err := r.journal.Begin(ctx, renderID, req.AudioPath, req.OutputPath, req.Profile.Name)
	if err != nil {
		logger.Warn("journal begin failed", logging.Error(err))
		return nil
	}
	return attempt
}

func (r *Runner) recordPlan(ctx context.Context, logger *slog.Logger, attempt *journal.Record, duration float64, chunkCount int) {
	if r.journal == nil || attempt == nil {
		return
	}
	if err := r.journal.SetPlan(ctx, attempt.ID, duration, chunkCount); err != nil {
		logger.Warn("journal plan update failed", logging.Error(err))
	}
}

func (r *Runner) setStatus(ctx context.Context, logger *slog.Logger, attempt *journal.Record, status journal.Status) {
	if r.journal == nil || attempt == nil {
		return
	}
	if err := r.journal.SetStatus(ctx, attempt.ID, status); err != nil {
		logger.Warn("journal status update failed",
			logging.String("status", string(status)),
			logging.Error(err))
	}
}

func (r *Runner) finishAttempt(ctx context.Context, logger *slog.Logger, attempt *journal.Record, renderErr error) {
	if r.journal == nil || attempt == nil {
		return
	}
	if err := r.journal.Finish(ctx, attempt.ID, renderErr); err != nil {
		logger.Warn("journal finish failed", logging.Error(err))
	}
}
