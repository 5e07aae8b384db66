package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// capture redirects output to a buffer for the duration of the test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Fatal("verbose should start disabled")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("SetVerbose(true) had no effect")
	}
}

func TestLevels(t *testing.T) {
	ingest := With("ingest")

	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug verbose", true, func() { Debug("chunks=%d", 3) }, "[DEBUG] chunks=3\n"},
		{"debug quiet", false, func() { Debug("chunks=%d", 3) }, ""},
		{"info verbose", true, func() { Info("indexed %s", "doc-1") }, "[INFO] indexed doc-1\n"},
		{"info quiet", false, func() { Info("indexed %s", "doc-1") }, ""},
		{"warn verbose", true, func() { Warn("no articles") }, "[WARN] no articles\n"},
		{"warn quiet", false, func() { Warn("no articles") }, ""},
		{"error quiet", false, func() { Error("save %s", "doc-1") }, "[ERROR] save doc-1\n"},
		{"component debug", true, func() { ingest.Debug("batch of %d", 4) }, "[DEBUG] [ingest] batch of 4\n"},
		{"component info quiet", false, func() { ingest.Info("hidden") }, ""},
		{"component warn", true, func() { ingest.Warn("retrying") }, "[WARN] [ingest] retrying\n"},
		{"component error quiet", false, func() { ingest.Error("shown") }, "[ERROR] [ingest] shown\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Chunking")
	if buf.String() != "\n=== Chunking ===\n" {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	SetVerbose(false)
	Section("Chunking")
	if buf.Len() != 0 {
		t.Errorf("section printed while quiet: %q", buf.String())
	}
}

func TestConcurrentUse(t *testing.T) {
	capture(t, false)
	log := With("worker")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			log.Debug("task %d", i)
			_ = IsVerbose()
		}()
	}
	wg.Wait()
}
