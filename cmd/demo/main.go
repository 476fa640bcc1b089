// Command demo drives the multilingual voice agent through pre-scripted
// conversation scenarios and records what comes back.
//
// Usage:
//
//	go run ./cmd/demo                 # interactive scenario menu
//	go run ./cmd/demo field_technician
//	go run ./cmd/demo 2               # run scenario 2 directly
//	go run ./cmd/demo all             # run every scripted scenario
//	go run ./cmd/demo custom          # type your own messages
//
// Environment variables required:
//
//	DEEPGRAM_API_KEY   - Deepgram Voice Agent access
//	CARTESIA_API_KEY   - Cartesia TTS access (agent-side speak endpoint)
//	CARTESIA_VOICE_ID  - Cartesia voice to synthesize with
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxlab/go-voiceharness/internal/config"
	"github.com/voxlab/go-voiceharness/internal/log"
	"github.com/voxlab/go-voiceharness/pkg/report"
	"github.com/voxlab/go-voiceharness/pkg/scenario"
	"github.com/voxlab/go-voiceharness/pkg/session"
)

func main() {
	config.LoadDotenv()

	resultsDir := flag.String("results", config.OrDefault("RESULTS_DIR", report.DefaultResultsDir), "Directory for result records")
	audioDir := flag.String("audio", config.OrDefault("AUDIO_DIR", report.DefaultAudioDir), "Directory for received audio")
	wrapWAV := flag.Bool("wav", false, "Save audio as playable .wav instead of raw .pcm")
	turnTimeout := flag.Duration("turn-timeout", 15*time.Second, "Response wait per turn")
	keepAlive := flag.Duration("keepalive", 0, "Keep-alive interval override (0 = default)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Setup(*debug)

	cfg := session.Config{
		DeepgramAPIKey:    config.Required(config.EnvDeepgramAPIKey),
		CartesiaAPIKey:    config.Required(config.EnvCartesiaAPIKey),
		CartesiaVoiceID:   config.Required(config.EnvCartesiaVoiceID),
		TurnTimeout:       *turnTimeout,
		KeepAliveInterval: *keepAlive,
		Logger:            log.L(),
	}

	writer, err := report.NewWriter(*resultsDir, *audioDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	writer.WrapWAV = *wrapWAV

	catalog := scenario.Builtin()

	selector := flag.Arg(0)
	if selector == "" {
		showMenu(catalog, writer.AudioDir())
		selector = readChoice(catalog.Len())
		if selector == "" {
			fmt.Println("  Bye!")
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scenarios []scenario.Scenario
	if strings.EqualFold(selector, "all") {
		for _, s := range catalog.All() {
			if !s.Interactive {
				scenarios = append(scenarios, s)
			}
		}
	} else {
		s, ok := catalog.Lookup(selector)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown scenario: %s\n", selector)
			fmt.Fprintf(os.Stderr, "Available: 1-%d, a scenario ID, or \"all\"\n", catalog.Len())
			os.Exit(1)
		}
		scenarios = append(scenarios, s)
	}

	failed := false
	for i, scn := range scenarios {
		if i > 0 {
			time.Sleep(2 * time.Second)
		}
		if !runScenario(ctx, scn, writer, cfg) {
			failed = true
		}
		if ctx.Err() != nil {
			break
		}
	}
	if failed {
		os.Exit(1)
	}
}

func runScenario(ctx context.Context, scn scenario.Scenario, writer *report.Writer, cfg session.Config) bool {
	line := strings.Repeat("━", 60)
	fmt.Printf("\n  %s\n", line)
	fmt.Printf("  Scenario: %s\n", scn.Name)
	fmt.Printf("  %s\n", scn.Subtitle)
	fmt.Printf("  Config: agent.language=%s, listen.language=%s\n",
		orDefault(string(scn.AgentLanguage)), orDefault(string(scn.ListenLanguage)))
	fmt.Printf("  %s\n\n", line)
	fmt.Println("  Connecting to voice agent...")

	runner := session.New(scn, writer, cfg)
	runner.OnUserTurn = func(label, text string) {
		fmt.Printf("\n  YOU [%s]: %s\n", label, text)
	}
	runner.OnAgentText = func(text string) {
		fmt.Printf("  AGENT: %s\n", text)
	}
	runner.OnAudioSaved = func(path string, size int) {
		fmt.Printf("       audio saved: %s (%d bytes)\n", path, size)
	}

	var result *report.Result
	if scn.Interactive {
		fmt.Println("\n  Type messages below. Press Enter to send. Type 'quit' to exit.")
		runner.OnPrompt = func() { fmt.Print("  YOU: ") }
		result = runner.RunInteractive(ctx, os.Stdin)
	} else {
		result = runner.Run(ctx)
	}

	printSummary(result)

	path, err := writer.WriteResult(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	fmt.Printf("  Result written: %s\n", path)
	fmt.Printf("  Audio files in: %s\n\n", writer.AudioDir())
	return result.Passed || scn.Interactive
}

func printSummary(result *report.Result) {
	line := strings.Repeat("─", 60)
	fmt.Printf("\n  %s\n", line)
	fmt.Println("  CONVERSATION SUMMARY")
	fmt.Printf("  %s\n", line)
	for _, msg := range result.Conversation {
		switch msg.Role {
		case "user":
			fmt.Printf("    YOU [%s]: %s\n", msg.Label, msg.Content)
		case "assistant":
			fmt.Printf("    AGENT: %s\n", msg.Content)
		}
	}
	for _, t := range result.Turns {
		verdict := "pass"
		if !t.Passed {
			verdict = "FAIL"
			if t.Reason != "" {
				verdict += " (" + t.Reason + ")"
			}
		}
		fmt.Printf("    turn %d [%s]: %s\n", t.Index, t.Label, verdict)
	}
	if len(result.Errors) > 0 {
		fmt.Println("  Errors:")
		for _, e := range result.Errors {
			fmt.Printf("    [%s] %s\n", e.Code, e.Description)
		}
	}
	if result.Failure != "" {
		fmt.Printf("  Scenario failed: %s\n", result.Failure)
	}
	fmt.Println()
}

func showMenu(catalog *scenario.Catalog, audioDir string) {
	fmt.Println()
	fmt.Println("  Multilingual Voice Agent Demo")
	fmt.Println("  STT: nova-3 | LLM: gpt-4o-mini | TTS: sonic-multilingual")
	fmt.Println()
	fmt.Println("  Select a demo scenario:")
	fmt.Println()
	for i, s := range catalog.All() {
		fmt.Printf("    %d. %s\n", i+1, s.Name)
		fmt.Printf("       %s\n\n", s.Subtitle)
	}
	fmt.Printf("  Audio output: %s\n\n", audioDir)
}

func readChoice(max int) string {
	fmt.Printf("  Enter scenario number (1-%d): ", max)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}
