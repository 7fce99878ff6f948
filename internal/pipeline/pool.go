package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"turntable/internal/filtergraph"
	"turntable/internal/journal"
	"turntable/internal/logging"
	"turntable/internal/render"
	"turntable/internal/services"
	"turntable/internal/services/ffmpeg"
)

// encodeChunks runs the chunk encodes on a bounded worker pool. The first
// failure cancels the remaining work; every worker drains before return so
// no encode outlives the render.
func (r *Runner) encodeChunks(ctx context.Context, logger *slog.Logger, req render.Request, fontFile string, artifacts []*render.ChunkArtifact, attempt *journal.Record) error {
	r.setStatus(ctx, logger, attempt, journal.StatusEncoding)

	workers := req.Profile.Threads
	if workers < 1 {
		workers = 1
	}
	if workers > len(artifacts) {
		workers = len(artifacts)
	}

	encodeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan *render.ChunkArtifact)
	errs := make([]error, len(artifacts))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for artifact := range jobs {
				if encodeCtx.Err() != nil {
					artifact.State = render.ChunkFailed
					artifact.Err = encodeCtx.Err()
					continue
				}
				err := r.encodeChunk(encodeCtx, logger, req, fontFile, artifact)
				errs[artifact.Chunk.Index] = err
				if err != nil {
					cancel()
				}
			}
		}()
	}

	for _, artifact := range artifacts {
		jobs <- artifact
	}
	close(jobs)
	wg.Wait()

	// Report the lowest-indexed failure so reruns see a stable error.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrEncode, "pipeline", "encode", "canceled", err)
	}
	return nil
}

func (r *Runner) encodeChunk(ctx context.Context, logger *slog.Logger, req render.Request, fontFile string, artifact *render.ChunkArtifact) error {
	chunk := artifact.Chunk
	artifact.State = render.ChunkEncoding

	graph, err := filtergraph.Build(filtergraph.Params{
		Profile:         req.Profile,
		Title:           req.Title,
		DateText:        req.DateText(),
		ChannelName:     req.ChannelName,
		FontFile:        fontFile,
		DurationSeconds: chunk.DurationSeconds,
	})
	if err != nil {
		artifact.State = render.ChunkFailed
		artifact.Err = services.Wrap(services.ErrFilterBuild, "pipeline", "filter graph", "", err)
		return artifact.Err
	}

	chunkLogger := logger.With(logging.Int(logging.FieldChunk, chunk.Index))
	chunkLogger.Info("encoding chunk",
		logging.Float64("duration_seconds", chunk.DurationSeconds))

	err = r.transcoder.Encode(ctx, ffmpeg.EncodeJob{
		DiscPath:       req.DiscPath,
		AudioPath:      artifact.AudioPath,
		BackgroundPath: req.BackgroundPath,
		OutputPath:     artifact.VideoPath,
		FilterGraph:    graph,
		Profile:        req.Profile,
		ChunkDuration:  chunk.Duration(),
		OnProgress: func(sample ffmpeg.ProgressSample) {
			chunkLogger.Debug("encode progress",
				logging.Duration("position", sample.Position))
		},
	})
	if err != nil {
		artifact.State = render.ChunkFailed
		artifact.Err = err
		chunkLogger.Warn("chunk encode failed", logging.Error(err))
		return err
	}

	artifact.State = render.ChunkDone
	chunkLogger.Info("chunk encoded")
	return nil
}
