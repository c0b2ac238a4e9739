package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStructuredLogger(t *testing.T) {
	t.Run("TextFormat", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelInfo, LogFormatText)
		l.Info("hello %s", "world")

		output := buf.String()
		if !strings.Contains(output, "INFO") || !strings.Contains(output, "hello world") {
			t.Errorf("Unexpected text output: %s", output)
		}
	})

	t.Run("JSONFormat", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetLevel(LogLevelInfo)
		l.SetOutput(buf)
		l.SetFormat(LogFormatJSON)
		l.Info("hello %s", "world")

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}

		if data["level"] != "INFO" || data["msg"] != "hello world" {
			t.Errorf("Unexpected JSON output: %v", data)
		}
		if _, ok := data["time"]; !ok {
			t.Errorf("Missing time field in JSON output")
		}
	})

	t.Run("WithFields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelInfo, LogFormatJSON)
		l2 := l.WithFields(map[string]any{"request_id": "123"})
		l2.Info("processed")

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}

		if data["request_id"] != "123" || data["msg"] != "processed" {
			t.Errorf("Unexpected JSON output with fields: %v", data)
		}
	})

	t.Run("SQLJSON", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelInfo, LogFormatJSON)
		l.SQL("SELECT * FROM article", time.Millisecond*10, "arg1", 1)

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}

		if data["logger"] != "simpledb.sql" || data["sql"] != "SELECT * FROM article" {
			t.Errorf("Unexpected SQL JSON output: %v", data)
		}
		if data["duration"] != "10ms" {
			t.Errorf("Unexpected duration in SQL JSON output: %v", data["duration"])
		}
	})

	t.Run("Statement", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelInfo, LogFormatText)
		l.Statement("UPDATE article SET title = ?", "new")
		NewNop().Statement("UPDATE article SET title = ?", "new")

		if !strings.Contains(buf.String(), "UPDATE article SET title = ?") {
			t.Errorf("statement not logged: %s", buf.String())
		}
	})

	t.Run("StatementIgnoresLevel", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelWarn, LogFormatText)
		l.Info("hidden")
		l.Statement("DELETE FROM article WHERE id = ?", 1)
		l.SetLevel(LogLevelSilent)
		l.WithFields(map[string]any{"conn": 1}).Statement("SELECT 1")

		output := buf.String()
		if strings.Contains(output, "hidden") {
			t.Errorf("info leaked past warn level: %s", output)
		}
		if !strings.Contains(output, "DELETE FROM article WHERE id = ?") || !strings.Contains(output, "SELECT 1") {
			t.Errorf("statement dropped by level: %s", output)
		}
	})

	t.Run("LevelFilter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(buf, LogLevelWarn, LogFormatText)
		l.Info("hidden")
		l.Debug("hidden too")
		l.Warn("shown")

		output := buf.String()
		if strings.Contains(output, "hidden") || !strings.Contains(output, "shown") {
			t.Errorf("Unexpected filtered output: %s", output)
		}
		if l.Enabled(LogLevelDebug) || l.Enabled(LogLevelInfo) || !l.Enabled(LogLevelWarn) {
			t.Errorf("Enabled disagrees with warn level")
		}
		if l.Enabled(LogLevelSilent) || NewNop().Enabled(LogLevelError) {
			t.Errorf("silent and nop loggers must report nothing enabled")
		}

		buf.Reset()
		l.SetLevel(LogLevelSilent)
		l.Error("nothing")
		l.SQL("SELECT 1", time.Millisecond)
		if buf.Len() != 0 {
			t.Errorf("silent logger wrote: %s", buf.String())
		}
	})

	t.Run("LevelOutput", func(t *testing.T) {
		mainBuf := &bytes.Buffer{}
		errorBuf := &bytes.Buffer{}
		l := New(mainBuf, LogLevelInfo, LogFormatText)
		l.SetLevelOutput(LogLevelError, errorBuf)

		l.Info("this is info")
		l.Error("this is error")

		mainOutput := mainBuf.String()
		errorOutput := errorBuf.String()

		if !strings.Contains(mainOutput, "INFO") || !strings.Contains(mainOutput, "this is info") {
			t.Errorf("Main buffer missing INFO: %s", mainOutput)
		}
		if !strings.Contains(mainOutput, "ERROR") || !strings.Contains(mainOutput, "this is error") {
			t.Errorf("Main buffer missing ERROR: %s", mainOutput)
		}

		if strings.Contains(errorOutput, "INFO") {
			t.Errorf("Error buffer should not contain INFO: %s", errorOutput)
		}
		if !strings.Contains(errorOutput, "ERROR") || !strings.Contains(errorOutput, "this is error") {
			t.Errorf("Error buffer missing ERROR: %s", errorOutput)
		}
	})

	t.Run("LevelOutputOnly", func(t *testing.T) {
		errorBuf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetOutput(nil)
		l.SetLevelOutput(LogLevelError, errorBuf)

		l.Info("this is info")
		l.Error("this is error")

		errorOutput := errorBuf.String()
		if strings.Contains(errorOutput, "INFO") {
			t.Errorf("Error buffer should not contain INFO: %s", errorOutput)
		}
		if !strings.Contains(errorOutput, "this is error") {
			t.Errorf("Error buffer missing ERROR: %s", errorOutput)
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":       LogLevelInfo,
		"INFO":   LogLevelInfo,
		"debug":  LogLevelDebug,
		"warn":   LogLevelWarn,
		"error":  LogLevelError,
		"silent": LogLevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRotationWriter(t *testing.T) {
	if (Rotation{}).Writer() != nil {
		t.Fatal("expected nil writer without file name")
	}

	path := filepath.Join(t.TempDir(), "simpledb.log")
	w := Rotation{Filename: path, MaxSizeMB: 1}.Writer()
	defer w.Close()

	l := New(w, LogLevelInfo, LogFormatText)
	l.Warn("rotated %d", 1)
	if err := l.Sync(); err != nil {
		t.Logf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "rotated 1") {
		t.Errorf("log file missing entry: %s", data)
	}
}
