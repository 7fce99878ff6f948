// Package ffmpeg wraps the external ffmpeg binary for the three render
// operations: stream-copy splitting of the source audio into chunks,
// supervised chunk encoding, and stream-copy concatenation of the encoded
// chunks into the final video.
//
// Encoding is the only long-running call and runs under a watchdog: a hard
// wall-clock timeout scaled from the chunk duration, plus stall detection
// driven by ffmpeg's own progress reporting on stderr. Both fire a kill and
// surface as distinct error sentinels.
//
// Command execution sits behind the Executor and Starter interfaces so
// tests can exercise the supervision logic without a real ffmpeg.
package ffmpeg
