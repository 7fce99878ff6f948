// Package render defines the core domain types for a video render: the
// render request, the profile that parameterizes output quality and
// supervision, and the chunk plan that divides the audio track into
// independently encodable segments.
package render
