package agent

import "encoding/json"

// Client message types accepted by the converse endpoint.
const (
	TypeSettings          = "Settings"
	TypeInjectUserMessage = "InjectUserMessage"
	TypeKeepAlive         = "KeepAlive"
)

// Server event types emitted by the converse endpoint.
const (
	EventSettingsApplied  = "SettingsApplied"
	EventConversationText = "ConversationText"
	EventAgentAudioDone   = "AgentAudioDone"
	EventError            = "Error"
	EventWarning          = "Warning"
)

// Settings is the one-time configuration message sent after connecting.
type Settings struct {
	Type  string        `json:"type"`
	Audio AudioSettings `json:"audio"`
	Agent AgentSettings `json:"agent"`
}

// AudioSettings declares the audio formats for both directions.
type AudioSettings struct {
	Input  AudioInput  `json:"input"`
	Output AudioOutput `json:"output"`
}

// AudioInput describes the client-to-agent audio format.
type AudioInput struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// AudioOutput describes the agent-to-client audio format.
// Container "none" requests raw frames without a file header.
type AudioOutput struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Container  string `json:"container"`
}

// AgentSettings configures the listen/think/speak pipeline.
type AgentSettings struct {
	Language string         `json:"language,omitempty"`
	Listen   ListenSettings `json:"listen"`
	Think    ThinkSettings  `json:"think"`
	Speak    SpeakSettings  `json:"speak"`
	Greeting string         `json:"greeting,omitempty"`
}

// ListenSettings selects the speech-to-text provider.
type ListenSettings struct {
	Provider ListenProvider `json:"provider"`
}

// ListenProvider identifies the STT model and its spoken-language mode.
type ListenProvider struct {
	Type     string `json:"type"`
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

// ThinkSettings selects the LLM and its system prompt.
type ThinkSettings struct {
	Provider ThinkProvider `json:"provider"`
	Prompt   string        `json:"prompt"`
}

// ThinkProvider identifies the LLM backing the agent.
type ThinkProvider struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

// SpeakSettings selects the TTS provider. For third-party providers the
// Endpoint carries the provider URL and auth headers; the hosted agent calls
// it on our behalf.
type SpeakSettings struct {
	Provider SpeakProvider  `json:"provider"`
	Endpoint *SpeakEndpoint `json:"endpoint,omitempty"`
}

// SpeakProvider identifies the TTS model and voice.
type SpeakProvider struct {
	Type     string `json:"type"`
	ModelID  string `json:"model_id"`
	Voice    Voice  `json:"voice"`
	Language string `json:"language,omitempty"`
}

// Voice selects a synthesis voice by ID.
type Voice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

// SpeakEndpoint is the third-party TTS endpoint the agent synthesizes through.
type SpeakEndpoint struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// injectUserMessage is a scripted text turn, bypassing STT.
type injectUserMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// keepAlive is the periodic liveness message.
type keepAlive struct {
	Type string `json:"type"`
}

// serverEvent is the envelope for all text frames from the agent.
// Only the fields for the matching Type are populated.
type serverEvent struct {
	Type        string `json:"type"`
	Role        string `json:"role,omitempty"`
	Content     string `json:"content,omitempty"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

func parseServerEvent(data []byte) (serverEvent, error) {
	var ev serverEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
