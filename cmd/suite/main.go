// Command suite runs the systematic multilingual validation scenarios
// back-to-back and prints a consolidated report.
//
// Usage:
//
//	go run ./cmd/suite            # run every suite scenario
//	go run ./cmd/suite T1         # run scenarios whose ID contains T1
//	go run ./cmd/suite T5 T6      # run a selection
//
// Requires the same environment variables as cmd/demo.
package main

import (
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

// pauseBetweenRuns lets the previous connection drain before the next dial.
const pauseBetweenRuns = 3 * time.Second

func main() {
	config.LoadDotenv()

	resultsDir := flag.String("results", config.OrDefault("RESULTS_DIR", "test_results"), "Directory for result records")
	audioDir := flag.String("audio", config.OrDefault("AUDIO_DIR", "test_results"), "Directory for received audio")
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

	scenarios := selectScenarios(scenario.Suite(), flag.Args())
	if len(scenarios) == 0 {
		fmt.Fprintf(os.Stderr, "No matching scenarios for: %v\n", flag.Args())
		for _, s := range scenario.Suite().All() {
			fmt.Fprintf(os.Stderr, "  %s\n", s.ID)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wide := strings.Repeat("=", 78)
	fmt.Println(wide)
	fmt.Println("  Multilingual Voice Agent Validation Suite")
	fmt.Printf("  Running %d scenario(s)\n", len(scenarios))
	fmt.Println(wide)

	var results []*report.Result
	for i, scn := range scenarios {
		fmt.Printf("\n%s\n", strings.Repeat("━", 78))
		fmt.Printf("  [%d/%d] %s\n", i+1, len(scenarios), scn.Name)
		fmt.Printf("  %s\n", scn.Subtitle)
		fmt.Println(strings.Repeat("━", 78))

		runner := session.New(scn, writer, cfg)
		runner.OnUserTurn = func(label, text string) {
			fmt.Printf("    >> [%s]: %s\n", label, truncate(text, 70))
		}
		runner.OnAgentText = func(text string) {
			fmt.Printf("    [AGENT]: %s\n", text)
		}

		result := runner.Run(ctx)
		results = append(results, result)

		if path, err := writer.WriteResult(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Printf("    result: %s\n", path)
		}

		if ctx.Err() != nil {
			break
		}
		if i < len(scenarios)-1 {
			fmt.Printf("\n  ... pausing %s ...\n", pauseBetweenRuns)
			time.Sleep(pauseBetweenRuns)
		}
	}

	printReport(results, cfg.CartesiaVoiceID)

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
}

// selectScenarios filters the catalog by ID fragments; no args means all.
func selectScenarios(catalog *scenario.Catalog, ids []string) []scenario.Scenario {
	all := catalog.All()
	if len(ids) == 0 {
		return all
	}
	var out []scenario.Scenario
	for _, s := range all {
		for _, id := range ids {
			if strings.Contains(strings.ToLower(s.ID), strings.ToLower(id)) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func printReport(results []*report.Result, voiceID string) {
	wide := strings.Repeat("=", 78)
	thin := strings.Repeat("─", 78)

	fmt.Printf("\n\n%s\n", wide)
	fmt.Println("  MULTILINGUAL VOICE AGENT — VALIDATION REPORT")
	fmt.Printf("%s\n\n", wide)
	fmt.Printf("  Voice ID  : %s\n", voiceID)
	fmt.Printf("  Timestamp : %s\n", time.Now().Format(time.RFC3339))

	for _, r := range results {
		fmt.Printf("\n%s\n", thin)
		fmt.Printf("  %s\n", r.ScenarioName)
		fmt.Printf("  Config: agent.language=%s, listen.language=%s, speak.language=%s\n",
			r.Config.AgentLanguage, r.Config.ListenLanguage, r.Config.SpeakLanguage)
		fmt.Println(thin)

		status := "ACCEPTED"
		if !r.SettingsApplied {
			status = "REJECTED"
		}
		fmt.Printf("  Settings: %s\n", status)
		if r.Failure != "" {
			fmt.Printf("  Failure : %s\n", r.Failure)
		}

		if len(r.Errors) > 0 {
			fmt.Println("  Errors:")
			for _, e := range r.Errors {
				fmt.Printf("    [%s] %s\n", e.Code, e.Description)
			}
		}
		if len(r.Warnings) > 0 {
			fmt.Println("  Warnings:")
			for _, w := range r.Warnings {
				fmt.Printf("    [%s] %s\n", w.Code, w.Description)
			}
		}

		fmt.Println("  Turns:")
		for _, t := range r.Turns {
			verdict := "pass"
			if !t.Passed {
				verdict = "FAIL"
				if t.Reason != "" {
					verdict += ": " + t.Reason
				}
			}
			fmt.Printf("    %d [%s] %s\n", t.Index, t.Label, verdict)
		}

		if total := r.AudioBytesTotal(); total > 0 {
			fmt.Printf("  Audio: %d bytes total\n", total)
		} else {
			fmt.Println("  Audio: NONE — TTS may have failed")
		}
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
