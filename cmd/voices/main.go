// Command voices lists the Cartesia voices available to the configured API
// key, for picking a CARTESIA_VOICE_ID.
//
// Usage:
//
//	go run ./cmd/voices
//
// Requires CARTESIA_API_KEY.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/voxlab/go-voiceharness/internal/config"
	"github.com/voxlab/go-voiceharness/internal/httpc"
)

const (
	voicesURL       = "https://api.cartesia.ai/voices"
	cartesiaVersion = "2024-06-10"
)

// voice is the subset of the Cartesia voice object we display.
type voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Description string `json:"description"`
}

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "Request timeout")
	flag.Parse()

	config.LoadDotenv()
	apiKey := config.Required(config.EnvCartesiaAPIKey)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := httpc.GetJSON(ctx, voicesURL, map[string]string{
		"X-API-Key":        apiKey,
		"Cartesia-Version": cartesiaVersion,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Fprintf(os.Stderr, "Error: voices request failed (status %d)\n", resp.StatusCode)
		os.Exit(1)
	}

	var voices []voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		fmt.Fprintf(os.Stderr, "Error: decode response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-38s %-6s %s\n", "ID", "LANG", "NAME")
	for _, v := range voices {
		fmt.Printf("%-38s %-6s %s\n", v.ID, v.Language, v.Name)
	}
	fmt.Printf("\n%d voices. Export one with: export CARTESIA_VOICE_ID=\"<id>\"\n", len(voices))
}
