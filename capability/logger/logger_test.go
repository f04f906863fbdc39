package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/txpipe/balius/metrics"
)

type recordingProvider struct {
	calls []struct {
		workerID, context, message string
		level                      Level
	}
}

func (p *recordingProvider) Log(workerID string, level Level, context, message string) {
	p.calls = append(p.calls, struct {
		workerID, context, message string
		level                      Level
	}{workerID, context, message, level})
}

func TestHost_DelegatesAndLabelsMetric(t *testing.T) {
	provider := &recordingProvider{}
	m := metrics.New()
	h := NewHost("w1", provider, m)

	h.Log(LevelWarn, "init", "careful")

	if len(provider.calls) != 1 {
		t.Fatalf("want 1 call, got %d", len(provider.calls))
	}
	call := provider.calls[0]
	if call.workerID != "w1" || call.level != LevelWarn || call.message != "careful" {
		t.Fatalf("got %+v", call)
	}
}

func TestSilent_DropsEverything(t *testing.T) {
	var s Silent
	s.Log("w1", LevelCritical, "ctx", "should not panic or record")
}

func TestFile_WritesOneJSONLinePerCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.Log("w1", LevelInfo, "init", "hello")
	f.Log("w1", LevelError, "handle", "boom")

	raw, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()

	scanner := bufio.NewScanner(raw)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}

	var decoded struct {
		Worker  string `json:"worker"`
		Level   string `json:"level"`
		Context string `json:"context"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Worker != "w1" || decoded.Level != "INFO" || decoded.Message != "hello" {
		t.Fatalf("got %+v", decoded)
	}
}
