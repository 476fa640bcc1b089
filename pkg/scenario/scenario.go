// Package scenario defines the static catalog of scripted conversations used
// to exercise the multilingual voice agent, and the heuristics that judge
// whether a response came back in the expected language.
package scenario

import (
	"fmt"
	"strings"
)

// Language is a spoken-language mode or expectation.
type Language string

const (
	// LangMulti lets the agent detect and switch languages per turn.
	LangMulti Language = "multi"

	LangEnglish  Language = "en"
	LangSpanish  Language = "es"
	LangFrench   Language = "fr"
	LangJapanese Language = "ja"
)

// Expect describes the assertion for one turn's response.
// A zero Expect records the response without judging it.
type Expect struct {
	// Language the response should be in. For LangEnglish the check is
	// strict: markers of other languages fail the turn.
	Language Language

	// Keywords that must appear in the response, case-insensitive.
	Keywords []string

	// WaitAudio requires synthesized audio for the turn.
	WaitAudio bool
}

// Empty reports whether the expectation asserts anything.
func (e Expect) Empty() bool {
	return e.Language == "" && len(e.Keywords) == 0 && !e.WaitAudio
}

// Check evaluates the combined assistant text of a turn against the
// expectation. audioBytes is the total synthesized audio received for the
// turn. The language check is a marker heuristic, not real language
// identification; see lang.go.
func (e Expect) Check(text string, audioBytes int) (bool, string) {
	if text == "" && (e.Language != "" || len(e.Keywords) > 0) {
		return false, "no assistant text received"
	}
	if e.Language != "" {
		if ok, why := checkLanguage(text, e.Language); !ok {
			return false, why
		}
	}
	lower := strings.ToLower(text)
	for _, kw := range e.Keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			return false, fmt.Sprintf("missing keyword %q", kw)
		}
	}
	if e.WaitAudio && audioBytes == 0 {
		return false, "no audio received"
	}
	return true, ""
}

// Turn is one scripted user utterance with its expected outcome.
type Turn struct {
	// Label describes the turn in menus and reports (e.g. "Spanish").
	Label string

	// Text is the utterance injected as a text turn.
	Text string

	// AudioPath optionally points at a raw audio file to stream instead of
	// Text. The bytes are sent opaque in the configured input format.
	AudioPath string

	// Expect is the assertion for the agent's response.
	Expect Expect
}

// Scenario is a named, ordered conversation script. Scenarios are immutable
// once the catalog is built.
type Scenario struct {
	ID       string
	Name     string
	Subtitle string

	// AgentLanguage and ListenLanguage configure the pipeline's language
	// mode; SpeakLanguage optionally pins the TTS output language (used by
	// the single-language fallback test).
	AgentLanguage  Language
	ListenLanguage Language
	SpeakLanguage  Language

	// Prompt is the LLM system prompt carrying the language rule under test.
	Prompt string

	// Greeting is spoken by the agent when the session opens.
	Greeting string

	Turns []Turn

	// Interactive marks the free-form scenario whose turns come from stdin.
	Interactive bool
}

// TurnCount returns the number of scripted turns.
func (s Scenario) TurnCount() int {
	return len(s.Turns)
}
