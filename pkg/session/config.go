package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/voxlab/go-voiceharness/pkg/agent"
	"github.com/voxlab/go-voiceharness/pkg/scenario"
)

// Config holds everything a Runner needs beyond the scenario itself.
type Config struct {
	// Credentials. All three are required: the agent connection
	// authenticates with the Deepgram key, and the Settings message carries
	// the Cartesia key and voice for the speak endpoint.
	DeepgramAPIKey  string
	CartesiaAPIKey  string
	CartesiaVoiceID string

	// AgentURL overrides the converse endpoint (used by tests).
	AgentURL string

	// SettingsTimeout bounds the wait for SettingsApplied.
	SettingsTimeout time.Duration

	// GreetingTimeout bounds the wait for the spoken greeting after the
	// settings are accepted.
	GreetingTimeout time.Duration

	// TurnTimeout bounds the wait for each turn's response. A turn that
	// produces nothing inside this window is marked failed; the scenario
	// continues.
	TurnTimeout time.Duration

	// KeepAliveInterval and QuietWindow are passed through to the agent
	// client; zero keeps the client defaults.
	KeepAliveInterval time.Duration
	QuietWindow       time.Duration

	Logger *slog.Logger
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.DeepgramAPIKey == "" {
		return errors.New("session: Deepgram API key required")
	}
	if c.CartesiaAPIKey == "" {
		return errors.New("session: Cartesia API key required")
	}
	if c.CartesiaVoiceID == "" {
		return errors.New("session: Cartesia voice ID required")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.SettingsTimeout == 0 {
		c.SettingsTimeout = 10 * time.Second
	}
	if c.GreetingTimeout == 0 {
		c.GreetingTimeout = 8 * time.Second
	}
	if c.TurnTimeout == 0 {
		c.TurnTimeout = 15 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Deadline returns the overall wall-clock budget for a scenario run:
// a fixed base plus an allowance per scripted turn.
func (c Config) Deadline(scn scenario.Scenario) time.Duration {
	base := c.SettingsTimeout + c.GreetingTimeout
	return base + time.Duration(scn.TurnCount()+1)*c.TurnTimeout
}

// Pipeline model identifiers from the validated configuration: Nova-3 STT in
// multi-language mode, the agent-managed GPT-4o-mini, and the Cartesia
// multilingual voice reached through the speak endpoint.
const (
	listenModel   = "nova-3"
	thinkProvider = "open_ai"
	thinkModel    = "gpt-4o-mini"

	speakModelID     = "sonic-multilingual"
	cartesiaTTSURL   = "https://api.cartesia.ai/tts/bytes"
	cartesiaVersion  = "2024-06-10"
	cartesiaAuthHead = "X-API-Key"
)

// buildSettings assembles the one-time configuration message for a scenario.
func buildSettings(scn scenario.Scenario, cfg Config) agent.Settings {
	speak := agent.SpeakProvider{
		Type:     "cartesia",
		ModelID:  speakModelID,
		Voice:    agent.Voice{Mode: "id", ID: cfg.CartesiaVoiceID},
		Language: string(scn.SpeakLanguage),
	}

	return agent.Settings{
		Audio: agent.AudioSettings{
			Input:  agent.AudioInput{Encoding: "linear16", SampleRate: 16000},
			Output: agent.AudioOutput{Encoding: "linear16", SampleRate: 24000, Container: "none"},
		},
		Agent: agent.AgentSettings{
			Language: string(scn.AgentLanguage),
			Listen: agent.ListenSettings{
				Provider: agent.ListenProvider{
					Type:     "deepgram",
					Model:    listenModel,
					Language: string(scn.ListenLanguage),
				},
			},
			Think: agent.ThinkSettings{
				Provider: agent.ThinkProvider{Type: thinkProvider, Model: thinkModel},
				Prompt:   scn.Prompt,
			},
			Speak: agent.SpeakSettings{
				Provider: speak,
				Endpoint: &agent.SpeakEndpoint{
					URL: cartesiaTTSURL,
					Headers: map[string]string{
						cartesiaAuthHead:   cfg.CartesiaAPIKey,
						"Cartesia-Version": cartesiaVersion,
					},
				},
			},
			Greeting: scn.Greeting,
		},
	}
}
