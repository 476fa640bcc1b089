package session

import "testing"

func TestStateAdvanceBounds(t *testing.T) {
	s := newState(2)

	for want := 1; want <= 2; want++ {
		got, err := s.advance()
		if err != nil {
			t.Fatalf("advance %d: %v", want, err)
		}
		if got != want {
			t.Errorf("advance returned %d, want %d", got, want)
		}
	}
	if _, err := s.advance(); err == nil {
		t.Error("advance past the scripted turn count should fail")
	}
}

func TestStateAdvanceUnbounded(t *testing.T) {
	s := newState(-1)
	for i := 1; i <= 50; i++ {
		got, err := s.advance()
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if got != i {
			t.Errorf("advance returned %d, want %d", got, i)
		}
	}
}

func TestStateAudioBuffer(t *testing.T) {
	s := newState(1)
	s.appendAudio([]byte{1, 2})
	s.appendAudio([]byte{3})

	got := s.takeAudio()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("takeAudio = %v", got)
	}
	if s.takeAudio() != nil {
		t.Error("buffer should be empty after take")
	}
}
