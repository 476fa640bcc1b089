package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewResultUniqueRunIDs(t *testing.T) {
	a := NewResult("sales_demo", "Sales Demo")
	b := NewResult("sales_demo", "Sales Demo")

	if a.RunID == b.RunID {
		t.Errorf("two runs of the same scenario share run ID %s", a.RunID)
	}
	if !strings.HasPrefix(a.RunID, "sales_demo_") {
		t.Errorf("run ID %s does not start with the scenario slug", a.RunID)
	}
}

func TestRunIDIsFilesystemSafe(t *testing.T) {
	r := NewResult("Test 1: agent.language=multi", "x")
	for _, c := range r.RunID {
		valid := c == '_' || c == '-' ||
			(c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !valid {
			t.Fatalf("run ID %q contains unsafe character %q", r.RunID, c)
		}
	}
}

func TestResultVerdict(t *testing.T) {
	t.Run("all turns passed", func(t *testing.T) {
		r := NewResult("s", "S")
		r.SettingsApplied = true
		r.Turns = append(r.Turns, TurnOutcome{Index: 1, Passed: true}, TurnOutcome{Index: 2, Passed: true})
		r.Finish()
		if !r.Passed {
			t.Error("expected pass")
		}
		if r.FinishedAt.IsZero() {
			t.Error("FinishedAt not stamped")
		}
	})

	t.Run("one failed turn fails the run", func(t *testing.T) {
		r := NewResult("s", "S")
		r.SettingsApplied = true
		r.Turns = append(r.Turns, TurnOutcome{Index: 1, Passed: true}, TurnOutcome{Index: 2, Passed: false})
		r.Finish()
		if r.Passed {
			t.Error("expected failure")
		}
	})

	t.Run("settings rejection fails the run", func(t *testing.T) {
		r := NewResult("s", "S")
		r.Finish()
		if r.Passed {
			t.Error("expected failure without settings applied")
		}
	})

	t.Run("first terminal failure wins", func(t *testing.T) {
		r := NewResult("s", "S")
		r.Fail("connection closed")
		r.Fail("context canceled")
		if r.Failure != "connection closed" {
			t.Errorf("Failure = %q", r.Failure)
		}
	})
}

func TestWriterWriteResult(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "results"), filepath.Join(dir, "audio"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	r := NewResult("strict_english", "Strict English")
	r.SettingsApplied = true
	r.Turns = append(r.Turns, TurnOutcome{Index: 1, Label: "English", Passed: true})
	r.Finish()

	path, err := w.WriteResult(r)
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got Result
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RunID != r.RunID || len(got.Turns) != 1 || !got.Passed {
		t.Errorf("round trip mismatch: %+v", got)
	}

	t.Run("never overwrites", func(t *testing.T) {
		if _, err := w.WriteResult(r); err == nil {
			t.Error("writing the same run ID twice should fail")
		}
	})

	t.Run("distinct runs get distinct files", func(t *testing.T) {
		again := NewResult("strict_english", "Strict English")
		again.Finish()
		path2, err := w.WriteResult(again)
		if err != nil {
			t.Fatalf("WriteResult: %v", err)
		}
		if path2 == path {
			t.Error("two runs share a result file")
		}
	})
}

func TestWriterTurnAudio(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "results"), filepath.Join(dir, "audio"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	pcm := make([]byte, 4800)

	t.Run("raw pcm by default", func(t *testing.T) {
		path, err := w.WriteTurnAudio("run_x", 1, pcm)
		if err != nil {
			t.Fatalf("WriteTurnAudio: %v", err)
		}
		if filepath.Ext(path) != ".pcm" {
			t.Errorf("expected .pcm file, got %s", path)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Size() != int64(len(pcm)) {
			t.Errorf("raw file size %d, want %d", info.Size(), len(pcm))
		}
	})

	t.Run("empty buffer writes nothing", func(t *testing.T) {
		path, err := w.WriteTurnAudio("run_x", 2, nil)
		if err != nil {
			t.Fatalf("WriteTurnAudio: %v", err)
		}
		if path != "" {
			t.Errorf("expected no file, got %s", path)
		}
	})

	t.Run("wav wrapping", func(t *testing.T) {
		w.WrapWAV = true
		defer func() { w.WrapWAV = false }()

		path, err := w.WriteTurnAudio("run_x", 3, pcm)
		if err != nil {
			t.Fatalf("WriteTurnAudio: %v", err)
		}
		if filepath.Ext(path) != ".wav" {
			t.Errorf("expected .wav file, got %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if len(data) != wavHeaderSize+len(pcm) {
			t.Fatalf("wav size %d, want %d", len(data), wavHeaderSize+len(pcm))
		}
		if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Error("missing RIFF/WAVE markers")
		}
	})
}

func TestWAVHeaderFields(t *testing.T) {
	h := wavHeader(48000, 24000)

	if len(h) != wavHeaderSize {
		t.Fatalf("header size %d", len(h))
	}
	// sample rate at offset 24, little endian
	rate := int(h[24]) | int(h[25])<<8 | int(h[26])<<16 | int(h[27])<<24
	if rate != 24000 {
		t.Errorf("sample rate %d, want 24000", rate)
	}
	// data chunk size at offset 40
	size := int(h[40]) | int(h[41])<<8 | int(h[42])<<16 | int(h[43])<<24
	if size != 48000 {
		t.Errorf("data size %d, want 48000", size)
	}
	// 16-bit mono PCM
	if h[22] != 1 {
		t.Error("channels != 1")
	}
	if h[34] != 16 {
		t.Error("bits per sample != 16")
	}
}
