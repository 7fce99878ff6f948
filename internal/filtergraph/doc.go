// Package filtergraph assembles the ffmpeg filter_complex for a render
// from typed parameters. The graph layers a circular audio visualizer, a
// rotating artwork disc, fade in/out, and three text overlays onto the
// background image, ending at the [out] label the encoder maps.
//
// Text never reaches the graph raw: Drawtext escapes the characters that
// are significant to ffmpeg's filter parser and rejects control
// characters outright.
package filtergraph
