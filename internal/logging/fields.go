package logging

// Standardized attribute keys shared across the pipeline so logs from
// different components can be correlated per render and per chunk.
const (
	FieldComponent = "component"
	FieldRenderID  = "render_id"
	FieldChunk     = "chunk"
	FieldStage     = "stage"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
)
