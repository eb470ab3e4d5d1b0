package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	defer InitWithWriter(&bytes.Buffer{}, "INFO", "text", false)

	tests := []struct {
		level string
		want  Level
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"ERROR", LevelError},
	}

	for _, tt := range tests {
		SetLevel(tt.level)
		if got := GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q): got %v, want %v", tt.level, got, tt.want)
		}
	}

	// Invalid levels are ignored
	SetLevel("ERROR")
	SetLevel("bogus")
	if got := GetLevel(); got != LevelError {
		t.Errorf("invalid level changed current level to %v", got)
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)
	defer InitWithWriter(&bytes.Buffer{}, "INFO", "text", false)

	Info("request forwarded", KeySessionID, "s1", KeyStatus, 200)

	out := buf.String()
	if !strings.Contains(out, "request forwarded") {
		t.Errorf("missing message in output: %q", out)
	}
	if !strings.Contains(out, "session_id=s1") {
		t.Errorf("missing session_id field in output: %q", out)
	}
	if !strings.Contains(out, "status=200") {
		t.Errorf("missing status field in output: %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)
	defer InitWithWriter(&bytes.Buffer{}, "INFO", "text", false)

	Info("stored interaction", KeyInteractionID, "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "stored interaction" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
	if record["interaction_id"] != "abc" {
		t.Errorf("unexpected interaction_id: %v", record["interaction_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)
	defer InitWithWriter(&bytes.Buffer{}, "INFO", "text", false)

	Debug("too quiet")
	Info("still too quiet")
	Warn("loud enough")

	out := buf.String()
	if strings.Contains(out, "too quiet") {
		t.Errorf("debug/info leaked through WARN level: %q", out)
	}
	if !strings.Contains(out, "loud enough") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&bytes.Buffer{}, "INFO", "text", false)

	lc := NewLogContext("10.0.0.1").WithSession("s9", "replay")
	ctx := WithContext(t.Context(), lc)

	InfoCtx(ctx, "replayed")

	out := buf.String()
	for _, want := range []string{"session_id=s9", "mode=replay", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output: %q", want, out)
		}
	}
}
