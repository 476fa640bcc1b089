package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxlab/go-voiceharness/pkg/report"
	"github.com/voxlab/go-voiceharness/pkg/scenario"
)

// scriptedAgent accepts one converse connection, acknowledges the settings,
// and hands each InjectUserMessage to respond along with its 1-based turn
// number. respond returning false drops the connection.
func scriptedAgent(t *testing.T, respond func(conn *websocket.Conn, turn int, content string) bool) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		turn := 0
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "Settings":
				conn.WriteJSON(map[string]string{"type": "SettingsApplied"})
			case "InjectUserMessage":
				turn++
				if !respond(conn, turn, msg.Content) {
					conn.UnderlyingConn().Close()
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// speak plays back a canned agent response over conn.
func speak(conn *websocket.Conn, userText, agentText string) {
	conn.WriteJSON(map[string]string{"type": "ConversationText", "role": "user", "content": userText})
	conn.WriteJSON(map[string]string{"type": "ConversationText", "role": "assistant", "content": agentText})
	conn.WriteMessage(websocket.BinaryMessage, make([]byte, 960))
	conn.WriteJSON(map[string]string{"type": "AgentAudioDone"})
}

func testConfig(t *testing.T, url string) Config {
	t.Helper()
	return Config{
		DeepgramAPIKey:  "dg-test",
		CartesiaAPIKey:  "ca-test",
		CartesiaVoiceID: "voice-test",
		AgentURL:        url,
		SettingsTimeout: 2 * time.Second,
		GreetingTimeout: 300 * time.Millisecond,
		TurnTimeout:     2 * time.Second,
	}
}

func testWriter(t *testing.T) *report.Writer {
	t.Helper()
	dir := t.TempDir()
	w, err := report.NewWriter(dir+"/results", dir+"/audio")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

func twoTurnScenario() scenario.Scenario {
	return scenario.Scenario{
		ID:            "mirror_smoke",
		Name:          "Mirror Smoke",
		AgentLanguage: scenario.LangMulti,
		Prompt:        "Reply in the language of the user.",
		Turns: []scenario.Turn{
			{Label: "Spanish", Text: "Hola, ¿cómo estás?",
				Expect: scenario.Expect{Language: scenario.LangSpanish, WaitAudio: true}},
			{Label: "English", Text: "What can you help me with?",
				Expect: scenario.Expect{Keywords: []string{"help"}, WaitAudio: true}},
		},
	}
}

func TestRunScriptedScenario(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		switch turn {
		case 1:
			speak(conn, content, "¡Hola! Estoy muy bien, gracias. ¿Y tú?")
		case 2:
			speak(conn, content, "I can help with scheduling and general questions.")
		}
		return true
	})

	runner := New(twoTurnScenario(), testWriter(t), testConfig(t, url))
	result := runner.Run(context.Background())

	if !result.SettingsApplied {
		t.Fatal("settings were not applied")
	}
	if len(result.Turns) != 2 {
		t.Fatalf("expected 2 turn outcomes, got %d", len(result.Turns))
	}
	for _, turn := range result.Turns {
		if !turn.Passed {
			t.Errorf("turn %d (%s) failed: %s", turn.Index, turn.Label, turn.Reason)
		}
		if turn.AudioBytes != 960 {
			t.Errorf("turn %d audio bytes = %d, want 960", turn.Index, turn.AudioBytes)
		}
		if turn.AudioFile == "" {
			t.Errorf("turn %d audio was not saved", turn.Index)
		} else if _, err := os.Stat(turn.AudioFile); err != nil {
			t.Errorf("turn %d audio file: %v", turn.Index, err)
		}
	}
	if !result.Passed {
		t.Errorf("run failed: %s", result.Failure)
	}
	if result.FinishedAt.IsZero() {
		t.Error("result was not finished")
	}

	// Conversation keeps both sides, user turn then agent reply, twice over.
	if len(result.Conversation) < 4 {
		t.Errorf("conversation too short: %d messages", len(result.Conversation))
	}
}

func TestRunsGetDistinctResults(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		speak(conn, content, "ok, help is on the way")
		return true
	})

	scn := scenario.Scenario{
		ID: "single", Name: "Single",
		Turns: []scenario.Turn{{Label: "only", Text: "hi", Expect: scenario.Expect{WaitAudio: true}}},
	}
	writer := testWriter(t)
	cfg := testConfig(t, url)

	a := New(scn, writer, cfg).Run(context.Background())
	b := New(scn, writer, cfg).Run(context.Background())

	if a.RunID == b.RunID {
		t.Fatalf("two runs share run ID %s", a.RunID)
	}
	pa, err := writer.WriteResult(a)
	if err != nil {
		t.Fatalf("write first result: %v", err)
	}
	pb, err := writer.WriteResult(b)
	if err != nil {
		t.Fatalf("write second result: %v", err)
	}
	if pa == pb {
		t.Error("two runs share a result file")
	}
}

func TestTurnTimeoutFailsTurnNotRun(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		if turn == 1 {
			// Silent: no response, no audio.
			return true
		}
		speak(conn, content, "I can help with anything you need.")
		return true
	})

	scn := scenario.Scenario{
		ID: "timeout_case", Name: "Timeout Case",
		Turns: []scenario.Turn{
			{Label: "dropped", Text: "anyone there?", Expect: scenario.Expect{WaitAudio: true}},
			{Label: "answered", Text: "help please", Expect: scenario.Expect{Keywords: []string{"help"}}},
		},
	}
	cfg := testConfig(t, url)
	cfg.TurnTimeout = 300 * time.Millisecond

	result := New(scn, testWriter(t), cfg).Run(context.Background())

	if len(result.Turns) != 2 {
		t.Fatalf("expected both turns recorded, got %d", len(result.Turns))
	}
	first := result.Turns[0]
	if first.Passed {
		t.Error("silent turn should fail")
	}
	if !first.TimedOut {
		t.Error("silent turn should be marked timed out")
	}
	if first.Reason != "no response before timeout" {
		t.Errorf("unexpected reason: %q", first.Reason)
	}
	if !result.Turns[1].Passed {
		t.Errorf("later turn should still pass: %s", result.Turns[1].Reason)
	}
	if result.Passed {
		t.Error("a failed turn must fail the run")
	}
	if result.Failure != "" {
		t.Errorf("a timeout is not terminal, got failure %q", result.Failure)
	}
}

func TestConnectionDropFailsRunCleanly(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		if turn == 1 {
			speak(conn, content, "¡Hola! Muy bien, gracias.")
			return true
		}
		return false // drop mid-scenario
	})

	result := New(twoTurnScenario(), testWriter(t), testConfig(t, url)).Run(context.Background())

	if result.Passed {
		t.Error("dropped run should not pass")
	}
	if result.Failure == "" {
		t.Error("dropped run should carry a terminal failure")
	}
	if !strings.Contains(result.Failure, "connection closed") {
		t.Errorf("failure should name the dropped connection, got %q", result.Failure)
	}
	if len(result.Turns) != 2 {
		t.Fatalf("expected both turns recorded, got %d", len(result.Turns))
	}
	if !result.Turns[0].Passed {
		t.Errorf("first turn completed before the drop: %s", result.Turns[0].Reason)
	}
}

func TestClientMessageTimeoutRecordedNotFatal(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		conn.WriteJSON(map[string]string{
			"type": "Error", "code": "CLIENT_MESSAGE_TIMEOUT",
			"description": "client has not sent audio recently",
		})
		speak(conn, content, "ok, help is on the way")
		return true
	})

	scn := scenario.Scenario{
		ID: "single", Name: "Single",
		Turns: []scenario.Turn{{Label: "only", Text: "hi", Expect: scenario.Expect{Keywords: []string{"help"}}}},
	}
	result := New(scn, testWriter(t), testConfig(t, url)).Run(context.Background())

	if !result.Passed {
		t.Fatalf("timeout notice should not fail the run: %s", result.Failure)
	}
	if !result.Turns[0].Passed {
		t.Errorf("timeout notice should not fail the turn: %s", result.Turns[0].Reason)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected the server error recorded, got %+v", result.Errors)
	}
	if result.Errors[0].Code != "CLIENT_MESSAGE_TIMEOUT" {
		t.Errorf("recorded code = %q", result.Errors[0].Code)
	}
}

func TestSettingsRejectionIsTerminal(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteJSON(map[string]string{
			"type": "Error", "code": "INVALID_SETTINGS",
			"description": "voice not available for model",
		})
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	result := New(twoTurnScenario(), testWriter(t), testConfig(t, url)).Run(context.Background())

	if result.SettingsApplied {
		t.Error("rejected settings should not be marked applied")
	}
	if result.Passed {
		t.Error("rejected settings should fail the run")
	}
	if !strings.Contains(result.Failure, "settings rejected") {
		t.Errorf("failure should name the rejection, got %q", result.Failure)
	}
	if len(result.Errors) == 0 || result.Errors[0].Code != "INVALID_SETTINGS" {
		t.Errorf("server error was not recorded: %+v", result.Errors)
	}
	if len(result.Turns) != 0 {
		t.Errorf("no turns should play after rejection, got %d", len(result.Turns))
	}
}

func TestMissingCredentialsFailWithoutConnecting(t *testing.T) {
	cfg := testConfig(t, "ws://127.0.0.1:1") // never dialed
	cfg.CartesiaVoiceID = ""

	result := New(twoTurnScenario(), testWriter(t), cfg).Run(context.Background())

	if result.Passed {
		t.Error("missing credentials should fail the run")
	}
	if !strings.Contains(result.Failure, "voice ID") {
		t.Errorf("failure should name the missing credential, got %q", result.Failure)
	}
}

func TestGreetingAudioSavedAsTurnZero(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			if json.Unmarshal(data, &msg) != nil {
				continue
			}
			switch msg.Type {
			case "Settings":
				conn.WriteJSON(map[string]string{"type": "SettingsApplied"})
				speak(conn, "", "Hello! How can I help you today?")
			case "InjectUserMessage":
				speak(conn, msg.Content, "Happy to help.")
			}
		}
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	scn := scenario.Scenario{
		ID: "greeted", Name: "Greeted",
		Greeting: "Hello! How can I help you today?",
		Turns: []scenario.Turn{{Label: "only", Text: "thanks", Expect: scenario.Expect{Keywords: []string{"help"}}}},
	}

	var saved []string
	runner := New(scn, testWriter(t), testConfig(t, url))
	runner.OnAudioSaved = func(path string, size int) { saved = append(saved, path) }

	result := runner.Run(context.Background())

	if !result.Passed {
		t.Fatalf("run failed: %s", result.Failure)
	}
	if len(saved) != 2 {
		t.Fatalf("expected greeting plus turn audio, got %d files", len(saved))
	}
	if !strings.Contains(saved[0], "_turn0") {
		t.Errorf("greeting audio should be saved as turn 0, got %s", saved[0])
	}
}

func TestInteractiveRun(t *testing.T) {
	url := scriptedAgent(t, func(conn *websocket.Conn, turn int, content string) bool {
		speak(conn, content, "noted: "+content)
		return true
	})

	runner := New(scenario.Scenario{ID: "custom", Name: "Custom", Interactive: true},
		testWriter(t), testConfig(t, url))

	in := strings.NewReader("first thing\nsecond thing\nquit\n")
	result := runner.RunInteractive(context.Background(), in)

	if len(result.Turns) != 2 {
		t.Fatalf("expected 2 interactive turns, got %d", len(result.Turns))
	}
	for i, turn := range result.Turns {
		if !turn.Passed {
			t.Errorf("interactive turn %d failed: %s", i+1, turn.Reason)
		}
	}
	if !result.Passed {
		t.Errorf("interactive run failed: %s", result.Failure)
	}
}
