package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debugf("hidden debug")
	log.Infof("hidden info")
	log.Warnf("shown warn")
	log.Errorf("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "shown warn") || !strings.Contains(out, "shown error") {
		t.Errorf("output missing warn/error messages: %q", out)
	}
}

func TestDefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "chatty")

	log.Debugf("hidden")
	log.Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug leaked at default level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info missing at default level: %q", out)
	}
}

func TestNilWriterDiscards(t *testing.T) {
	log := New(nil, "trace")
	// Must not panic
	log.Errorf("into the void")
}

func TestTimestampPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Infof("message")

	line := buf.String()
	if len(line) < 11 || line[0] != '[' || line[9] != ']' {
		t.Errorf("missing [HH:MM:SS] prefix: %q", line)
	}
}

func TestNoColorForPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Warnf("warning")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("ANSI escapes written to non-terminal writer: %q", buf.String())
	}
}

func TestConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Errorf("got %d lines, want 20", len(lines))
	}
}
