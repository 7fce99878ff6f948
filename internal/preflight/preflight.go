package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"turntable/internal/config"
	"turntable/internal/filtergraph"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckBinary("ffmpeg", cfg.FFmpegBinary(), "required for splitting, encoding, and merging"),
		CheckBinary("ffprobe", cfg.FFprobeBinary(), "required for duration probing"),
		CheckFont(cfg.Assets.FontFile),
		CheckDirectoryAccess("work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("output directory", cfg.Paths.OutputDir),
	}
	if cfg.Assets.DiscImage != "" {
		results = append(results, CheckReadableFile("disc image", cfg.Assets.DiscImage))
	}
	if cfg.Assets.FallbackBackground != "" {
		results = append(results, CheckReadableFile("fallback background", cfg.Assets.FallbackBackground))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// Summarize renders failed checks into a single error message.
func Summarize(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, result := range failed {
		details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
}

// CheckBinary verifies that a toolchain binary resolves on PATH.
func CheckBinary(name, command, description string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found (%s)", command, description)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckFont verifies that a text overlay font can be resolved.
func CheckFont(configured string) Result {
	font, err := filtergraph.FindFont(configured)
	if err != nil {
		return Result{Name: "font", Detail: err.Error()}
	}
	return Result{Name: "font", Passed: true, Detail: font}
}

// CheckReadableFile verifies that a configured asset exists and is a
// regular file.
func CheckReadableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
