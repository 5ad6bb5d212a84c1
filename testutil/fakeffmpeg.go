package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// FakeFFmpeg writes an executable shell script that stands in for ffmpeg in
// recorder tests and returns its path. The script body decides the exit code,
// stderr output, and whether anything gets written to the output path (the
// last argument, available as $out).
func FakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\n" +
		"# last argument is the output path\n" +
		"for out in \"$@\"; do :; done\n" +
		body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

// FakeFFmpegOK returns a fake ffmpeg that writes n bytes to the output path
// and exits 0.
func FakeFFmpegOK(t *testing.T, n int) string {
	t.Helper()
	return FakeFFmpeg(t, "head -c "+strconv.Itoa(n)+" /dev/zero > \"$out\"\nexit 0")
}
