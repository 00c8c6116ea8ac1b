package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recap/internal/caption"
	"recap/internal/dataset"
)

func withReportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := reportDir
	reportDir = func() string { return dir }
	t.Cleanup(func() { reportDir = old })
	return dir
}

func TestWriteReportWithoutSession(t *testing.T) {
	dir := withReportDir(t)
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written to %s, want %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "ReCap Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportDescribesSession(t *testing.T) {
	withReportDir(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := dataset.NewSession(caption.NewFileStore(), dataset.DefaultScanOptions())
	if err := s.Open(root); err != nil {
		t.Fatalf("Open: %v", err)
	}

	path, err := writeReport(s, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "(1 images)") || !strings.Contains(string(b), "a.png [0]") {
		t.Fatalf("session details missing: %s", b)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.Base(path))); !os.IsNotExist(err) {
		t.Fatalf("crash report must not be written into the dataset")
	}
}
