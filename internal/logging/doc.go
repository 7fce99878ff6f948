// Package logging provides slog-based structured logging for turntable.
//
// It exposes thin aliases over log/slog attribute constructors, shared
// field-name constants so render/chunk context stays greppable across
// packages, and a console handler that renders compact human-readable
// lines with optional ANSI color when attached to a terminal.
package logging
