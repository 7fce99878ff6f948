package render

// ChunkState tracks a chunk artifact through the pipeline.
type ChunkState string

const (
	ChunkPending   ChunkState = "pending"
	ChunkSplitting ChunkState = "splitting"
	ChunkEncoding  ChunkState = "encoding"
	ChunkDone      ChunkState = "done"
	ChunkFailed    ChunkState = "failed"
)

// ChunkArtifact pairs a planned chunk with the files produced for it.
type ChunkArtifact struct {
	Chunk     Chunk
	AudioPath string
	VideoPath string
	State     ChunkState
	Err       error
}
