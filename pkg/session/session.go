// Package session drives one scenario at a time through a live voice agent
// connection: it sends the configuration, plays the scripted turns in order,
// waits for each response within a bounded window, and hands outcomes and
// audio to the reporter. Scenarios run strictly sequentially; a run owns its
// connection and releases it unconditionally when the run ends.
package session

import (
	"bytes"
	"fmt"
)

// state is the mutable per-run session: the current turn index, the
// accumulated transcript position, and the audio buffer for the in-flight
// response. Only the Runner touches it.
type state struct {
	// total is the scripted turn count, or -1 for interactive runs.
	total int

	// turn is the 1-based index of the current turn. It only ever grows.
	turn int

	audio bytes.Buffer
}

func newState(total int) *state {
	return &state{total: total}
}

// advance moves to the next turn, enforcing that the index stays monotone
// and within the scenario's turn count.
func (s *state) advance() (int, error) {
	if s.total >= 0 && s.turn >= s.total {
		return s.turn, fmt.Errorf("session: turn index %d exceeds scenario turn count %d", s.turn+1, s.total)
	}
	s.turn++
	return s.turn, nil
}

// appendAudio buffers a received audio frame for the in-flight response.
func (s *state) appendAudio(data []byte) {
	s.audio.Write(data)
}

// takeAudio returns and clears the buffered response audio.
func (s *state) takeAudio() []byte {
	if s.audio.Len() == 0 {
		return nil
	}
	out := make([]byte, s.audio.Len())
	copy(out, s.audio.Bytes())
	s.audio.Reset()
	return out
}
