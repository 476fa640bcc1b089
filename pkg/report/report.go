// Package report accumulates per-turn outcomes of a scenario run into a
// result record and persists it, alongside any synthesized audio, to disk.
// One record is written per run and never overwritten.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one conversation entry, user or assistant.
type Message struct {
	Role    string `json:"role"`
	Label   string `json:"label,omitempty"`
	Content string `json:"content"`
}

// Issue is an error or warning event received from the agent.
type Issue struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// TurnOutcome records the pass/fail judgment for one turn.
type TurnOutcome struct {
	Index      int      `json:"index"`
	Label      string   `json:"label"`
	Input      string   `json:"input"`
	Passed     bool     `json:"passed"`
	Reason     string   `json:"reason,omitempty"`
	Responses  []string `json:"responses,omitempty"`
	AudioFile  string   `json:"audio_file,omitempty"`
	AudioBytes int      `json:"audio_bytes"`
	TimedOut   bool     `json:"timed_out,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

// ConfigSummary echoes the language configuration a run was driven with.
type ConfigSummary struct {
	AgentLanguage  string `json:"agent_language,omitempty"`
	ListenLanguage string `json:"listen_language,omitempty"`
	SpeakLanguage  string `json:"speak_language,omitempty"`
}

// Result is the persisted outcome of one scenario run. It is created when
// the run starts, filled in as turns complete, and never mutated after
// Finish.
type Result struct {
	RunID        string        `json:"run_id"`
	ScenarioID   string        `json:"scenario_id"`
	ScenarioName string        `json:"scenario_name"`
	Config       ConfigSummary `json:"config"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	SettingsApplied bool          `json:"settings_applied"`
	Turns           []TurnOutcome `json:"turns"`
	Conversation    []Message     `json:"conversation"`
	Errors          []Issue       `json:"errors,omitempty"`
	Warnings        []Issue       `json:"warnings,omitempty"`

	Passed  bool   `json:"passed"`
	Failure string `json:"failure,omitempty"`
}

// NewResult starts a result record with a unique run ID derived from the
// scenario ID, the wall clock, and a short random suffix. Two runs of the
// same scenario always get distinct IDs.
func NewResult(scenarioID, scenarioName string) *Result {
	now := time.Now()
	return &Result{
		RunID:        runID(scenarioID, now),
		ScenarioID:   scenarioID,
		ScenarioName: scenarioName,
		StartedAt:    now,
	}
}

// AddIssue records a server error or warning.
func (r *Result) AddIssue(warning bool, code, description string) {
	issue := Issue{Code: code, Description: description}
	if warning {
		r.Warnings = append(r.Warnings, issue)
	} else {
		r.Errors = append(r.Errors, issue)
	}
}

// Fail marks the whole run failed with a terminal reason. The first reason
// wins; later calls are kept only in Errors.
func (r *Result) Fail(reason string) {
	if r.Failure == "" {
		r.Failure = reason
	}
}

// Finish stamps the end time and computes the overall verdict: settings
// accepted, no terminal failure, and every turn passed.
func (r *Result) Finish() {
	r.FinishedAt = time.Now()
	r.Passed = r.SettingsApplied && r.Failure == ""
	for _, t := range r.Turns {
		if !t.Passed {
			r.Passed = false
		}
	}
}

// AudioBytesTotal sums the synthesized audio received across all turns.
func (r *Result) AudioBytesTotal() int {
	total := 0
	for _, t := range r.Turns {
		total += t.AudioBytes
	}
	return total
}

func runID(scenarioID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		slug(scenarioID),
		now.Format("20060102_150405"),
		uuid.NewString()[:8])
}

// slug keeps IDs filesystem safe.
func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, s)
}
