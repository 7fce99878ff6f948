package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckDirectoryAccessOK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("work directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccessMissing(t *testing.T) {
	result := CheckDirectoryAccess("work directory", filepath.Join(t.TempDir(), "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccessFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result := CheckDirectoryAccess("work directory", file)
	if result.Passed {
		t.Fatal("expected failure for regular file")
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "disc.png")
	if err := os.WriteFile(asset, []byte("png"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	if result := CheckReadableFile("disc image", asset); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckReadableFile("disc image", filepath.Join(dir, "nope.png")); result.Passed {
		t.Fatal("expected failure for missing asset")
	}
	if result := CheckReadableFile("disc image", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckBinary(t *testing.T) {
	if result := CheckBinary("ffmpeg", "", "required"); result.Passed {
		t.Fatal("expected failure for empty command")
	}
	if result := CheckBinary("ffmpeg", "definitely-not-a-real-binary-9f2", "required"); result.Passed {
		t.Fatal("expected failure for unknown binary")
	}
	// Something from coreutils is always on PATH in CI.
	if result := CheckBinary("shell", "sh", "required"); !result.Passed {
		t.Fatalf("expected sh to resolve, got: %s", result.Detail)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Name: "ffmpeg", Passed: true},
		{Name: "font", Detail: "no usable system font found"},
		{Name: "work directory", Detail: "/work (error: does not exist)"},
	}
	err := Summarize(results)
	if err == nil {
		t.Fatal("expected error for failed checks")
	}
	for _, want := range []string{"font", "work directory"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error missing %q: %v", want, err)
		}
	}

	if err := Summarize([]Result{{Name: "ffmpeg", Passed: true}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
