// Package config provides environment configuration helpers for the harness
// commands. Credentials come from the environment (optionally a .env file);
// a missing credential is a fatal startup error.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables the harness reads.
const (
	EnvDeepgramAPIKey  = "DEEPGRAM_API_KEY"
	EnvCartesiaAPIKey  = "CARTESIA_API_KEY"
	EnvCartesiaVoiceID = "CARTESIA_VOICE_ID"
)

// LoadDotenv loads a .env file from the working directory if one exists.
// Real environment variables always win over file values.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Required returns the trimmed value of an env var, exiting with a usage
// message when it is missing. Call only from command startup.
func Required(name string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: missing env var %s\n", name)
		fmt.Fprintf(os.Stderr, "Set it with: export %s=\"your-value\"\n", name)
		os.Exit(1)
	}
	return v
}

// OrDefault returns the trimmed env var value, or def when unset.
func OrDefault(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
