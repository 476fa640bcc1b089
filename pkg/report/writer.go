package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default output locations, relative to the working directory.
const (
	DefaultResultsDir = "results"
	DefaultAudioDir   = "agent_audio_out"
)

// Writer persists result records and received audio. Result files are
// created exclusively: an existing file with the same run ID is an error,
// never silently replaced.
type Writer struct {
	resultsDir string
	audioDir   string

	// WrapWAV writes audio as playable .wav files instead of raw .pcm.
	WrapWAV bool

	// SampleRate of the received PCM, used for the WAV header.
	SampleRate int
}

// NewWriter creates both output directories if needed.
func NewWriter(resultsDir, audioDir string) (*Writer, error) {
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}
	if audioDir == "" {
		audioDir = DefaultAudioDir
	}
	for _, dir := range []string{resultsDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("report: create %s: %w", dir, err)
		}
	}
	return &Writer{
		resultsDir: resultsDir,
		audioDir:   audioDir,
		SampleRate: 24000,
	}, nil
}

// WriteResult serializes the record as indented JSON under the results
// directory and returns the file path.
func (w *Writer) WriteResult(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal result: %w", err)
	}

	path := filepath.Join(w.resultsDir, r.RunID+".json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("report: create result file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return "", fmt.Errorf("report: write result file: %w", err)
	}
	return path, nil
}

// WriteTurnAudio saves one turn's synthesized audio and returns the file
// path. Empty buffers produce no file.
func (w *Writer) WriteTurnAudio(runID string, turn int, pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("%s_turn%d", runID, turn)
	if w.WrapWAV {
		path := filepath.Join(w.audioDir, name+".wav")
		if err := writeWAVFile(path, pcm, w.SampleRate); err != nil {
			return "", fmt.Errorf("report: write audio: %w", err)
		}
		return path, nil
	}

	path := filepath.Join(w.audioDir, name+".pcm")
	if err := os.WriteFile(path, pcm, 0o644); err != nil {
		return "", fmt.Errorf("report: write audio: %w", err)
	}
	return path, nil
}

// AudioDir returns the audio output directory.
func (w *Writer) AudioDir() string { return w.audioDir }

// ResultsDir returns the results output directory.
func (w *Writer) ResultsDir() string { return w.resultsDir }
