// Command turntable renders audio tracks into videos with a circular
// waveform visualizer, rotating disc artwork, and text overlays, driving
// an external ffmpeg toolchain.
package main
