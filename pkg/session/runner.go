package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/voxlab/go-voiceharness/pkg/agent"
	"github.com/voxlab/go-voiceharness/pkg/report"
	"github.com/voxlab/go-voiceharness/pkg/scenario"
)

// audioChunkSize is the frame size for streaming audio-reference turns.
const audioChunkSize = 8192

type eventKind int

const (
	evSettingsApplied eventKind = iota
	evText
	evAudio
	evAudioDone
	evServerError
	evWarning
	evClosed
)

// event is the runner's view of everything the client can deliver. Client
// callbacks funnel into one channel so the turn loop stays single-threaded.
type event struct {
	kind    eventKind
	role    string
	content string
	code    string
	desc    string
	serr    *agent.ServerError
	audio   []byte
	err     error
}

// Runner executes one scenario against a live agent connection and produces
// exactly one result record. A Runner is single-use.
type Runner struct {
	scn    scenario.Scenario
	writer *report.Writer
	cfg    Config
	logger *slog.Logger
	client *agent.Client

	// Display callbacks for the CLIs; all optional.
	OnUserTurn   func(label, text string)
	OnAgentText  func(text string)
	OnAudioSaved func(path string, size int)
	OnPrompt     func()
}

// New creates a runner for one scenario run.
func New(scn scenario.Scenario, writer *report.Writer, cfg Config) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		scn:    scn,
		writer: writer,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "session", "scenario", scn.ID),
	}
}

// Run drives the scripted turns and returns the result record. Failures are
// surfaced in the record, never swallowed: a connection or settings failure
// fails the whole run, a turn timeout or assertion mismatch fails that turn
// and the run continues.
func (r *Runner) Run(ctx context.Context) *report.Result {
	return r.run(ctx, nil)
}

// RunInteractive is the free-form variant: turns are read line by line from
// in until "quit" or EOF. Responses are recorded without assertions.
func (r *Runner) RunInteractive(ctx context.Context, in io.Reader) *report.Result {
	return r.run(ctx, in)
}

func (r *Runner) run(ctx context.Context, interactiveIn io.Reader) *report.Result {
	result := report.NewResult(r.scn.ID, r.scn.Name)
	result.Config = report.ConfigSummary{
		AgentLanguage:  string(r.scn.AgentLanguage),
		ListenLanguage: string(r.scn.ListenLanguage),
		SpeakLanguage:  string(r.scn.SpeakLanguage),
	}
	defer result.Finish()

	if err := r.cfg.Validate(); err != nil {
		result.Fail(err.Error())
		return result
	}

	if interactiveIn == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Deadline(r.scn))
		defer cancel()
	}

	events := make(chan event, 256)
	client := r.newClient(events)

	if err := client.Connect(ctx); err != nil {
		result.Fail(err.Error())
		return result
	}
	defer client.Close()

	if err := client.SendSettings(buildSettings(r.scn, r.cfg)); err != nil {
		result.Fail(err.Error())
		return result
	}

	sess := newState(r.scn.TurnCount())
	if interactiveIn != nil {
		sess.total = -1
	}

	if err := r.waitSettingsApplied(ctx, events, result); err != nil {
		result.Fail(err.Error())
		return result
	}
	result.SettingsApplied = true

	// Let the greeting play out before the first scripted turn. Greeting
	// audio is saved as turn 0.
	if r.scn.Greeting != "" {
		greet := r.collect(ctx, events, sess, result, r.cfg.GreetingTimeout)
		if audio := sess.takeAudio(); len(audio) > 0 {
			r.saveAudio(result, 0, audio)
		}
		if greet.terminal != nil {
			result.Fail(greet.terminal.Error())
			return result
		}
	}

	if interactiveIn != nil {
		r.interactiveLoop(ctx, events, sess, result, interactiveIn)
		return result
	}

	for _, turn := range r.scn.Turns {
		idx, err := sess.advance()
		if err != nil {
			result.Fail(err.Error())
			return result
		}
		terminal := r.playTurn(ctx, events, sess, result, idx, turn)
		if terminal != nil {
			result.Fail(terminal.Error())
			return result
		}
	}
	return result
}

// playTurn sends one utterance, waits for the response window, evaluates the
// assertion, and records the outcome. The returned error is non-nil only for
// scenario-terminal conditions.
func (r *Runner) playTurn(ctx context.Context, events chan event, sess *state, result *report.Result, idx int, turn scenario.Turn) error {
	if r.OnUserTurn != nil {
		r.OnUserTurn(turn.Label, turn.Text)
	}
	result.Conversation = append(result.Conversation, report.Message{
		Role: "user", Label: turn.Label, Content: turn.Text,
	})

	started := time.Now()
	if err := r.sendTurn(turn); err != nil {
		result.Turns = append(result.Turns, report.TurnOutcome{
			Index: idx, Label: turn.Label, Input: turn.Text,
			Passed: false, Reason: err.Error(),
		})
		return err
	}

	resp := r.collect(ctx, events, sess, result, r.cfg.TurnTimeout)

	audio := sess.takeAudio()
	outcome := report.TurnOutcome{
		Index:      idx,
		Label:      turn.Label,
		Input:      turn.Text,
		Responses:  resp.texts,
		AudioBytes: len(audio),
		TimedOut:   resp.timedOut,
		ElapsedMs:  time.Since(started).Milliseconds(),
	}
	if len(audio) > 0 {
		outcome.AudioFile = r.saveAudio(result, idx, audio)
	}

	text := strings.Join(resp.texts, "\n")
	switch {
	case resp.timedOut && text == "" && len(audio) == 0:
		outcome.Reason = "no response before timeout"
	default:
		outcome.Passed, outcome.Reason = turn.Expect.Check(text, len(audio))
	}
	result.Turns = append(result.Turns, outcome)

	if resp.terminal != nil {
		r.logger.Warn("scenario aborted", "turn", idx, "error", resp.terminal)
	}
	return resp.terminal
}

// interactiveLoop reads user turns from in and plays each as an unscripted
// turn until quit or EOF.
func (r *Runner) interactiveLoop(ctx context.Context, events chan event, sess *state, result *report.Result, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		if r.OnPrompt != nil {
			r.OnPrompt()
		}
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit", "q":
			return
		}

		idx, err := sess.advance()
		if err != nil {
			result.Fail(err.Error())
			return
		}
		turn := scenario.Turn{Label: "custom", Text: text}
		if terminal := r.playTurn(ctx, events, sess, result, idx, turn); terminal != nil {
			result.Fail(terminal.Error())
			return
		}
	}
}

// sendTurn transmits the utterance: scripted text, or an opaque audio file
// streamed in fixed-size frames.
func (r *Runner) sendTurn(turn scenario.Turn) error {
	client := r.client
	if turn.AudioPath == "" {
		return client.InjectUserMessage(turn.Text)
	}

	data, err := os.ReadFile(turn.AudioPath)
	if err != nil {
		return fmt.Errorf("session: read turn audio: %w", err)
	}
	for off := 0; off < len(data); off += audioChunkSize {
		end := off + audioChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := client.SendAudio(data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// turnResponse is what one response window produced.
type turnResponse struct {
	texts    []string
	timedOut bool
	terminal error
}

// collect drains events until the agent finishes speaking (AgentAudioDone),
// the window elapses, or the session dies. Non-assistant conversation text
// and server issues are recorded as they arrive.
func (r *Runner) collect(ctx context.Context, events chan event, sess *state, result *report.Result, window time.Duration) turnResponse {
	var resp turnResponse
	timer := time.NewTimer(window)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			resp.terminal = ctx.Err()
			return resp

		case <-timer.C:
			resp.timedOut = true
			return resp

		case ev := <-events:
			switch ev.kind {
			case evText:
				result.Conversation = append(result.Conversation, report.Message{
					Role: ev.role, Content: ev.content,
				})
				if ev.role == "assistant" {
					resp.texts = append(resp.texts, ev.content)
					if r.OnAgentText != nil {
						r.OnAgentText(ev.content)
					}
				}

			case evAudio:
				sess.appendAudio(ev.audio)

			case evAudioDone:
				return resp

			case evServerError:
				result.AddIssue(false, ev.serr.Code, ev.serr.Description)
				if ev.serr.Terminal() {
					resp.terminal = ev.serr
					return resp
				}

			case evWarning:
				result.AddIssue(true, ev.code, ev.desc)

			case evClosed:
				if ev.err != nil {
					resp.terminal = fmt.Errorf("session: connection closed: %w", ev.err)
				} else {
					resp.terminal = errors.New("session: connection closed")
				}
				return resp

			case evSettingsApplied:
				// Already applied; duplicate is harmless.
			}
		}
	}
}

// waitSettingsApplied blocks until the endpoint accepts the configuration.
func (r *Runner) waitSettingsApplied(ctx context.Context, events chan event, result *report.Result) error {
	timer := time.NewTimer(r.cfg.SettingsTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.New("session: timed out waiting for settings to apply")
		case ev := <-events:
			switch ev.kind {
			case evSettingsApplied:
				return nil
			case evServerError:
				result.AddIssue(false, ev.serr.Code, ev.serr.Description)
				if ev.serr.Terminal() {
					return fmt.Errorf("session: settings rejected: %w", ev.serr)
				}
			case evWarning:
				result.AddIssue(true, ev.code, ev.desc)
			case evClosed:
				return errors.New("session: connection closed before settings applied")
			}
		}
	}
}

// saveAudio writes one response's audio and returns the file path.
func (r *Runner) saveAudio(result *report.Result, turn int, audio []byte) string {
	path, err := r.writer.WriteTurnAudio(result.RunID, turn, audio)
	if err != nil {
		r.logger.Error("save audio failed", "turn", turn, "error", err)
		return ""
	}
	if r.OnAudioSaved != nil {
		r.OnAudioSaved(path, len(audio))
	}
	return path
}

// newClient wires a client's callbacks into the runner's event channel.
// Events are dropped only if the runner has stopped consuming, which only
// happens when the run is already over.
func (r *Runner) newClient(events chan event) *agent.Client {
	opts := []agent.Option{
		agent.WithAPIKey(r.cfg.DeepgramAPIKey),
		agent.WithLogger(r.cfg.Logger),
	}
	if r.cfg.AgentURL != "" {
		opts = append(opts, agent.WithURL(r.cfg.AgentURL))
	}
	if r.cfg.KeepAliveInterval != 0 {
		opts = append(opts, agent.WithKeepAliveInterval(r.cfg.KeepAliveInterval))
	}
	if r.cfg.QuietWindow != 0 {
		opts = append(opts, agent.WithQuietWindow(r.cfg.QuietWindow))
	}

	client := agent.NewClient(opts...)
	push := func(ev event) {
		select {
		case events <- ev:
		default:
		}
	}

	client.OnSettingsApplied = func() { push(event{kind: evSettingsApplied}) }
	client.OnConversationText = func(role, content string) {
		push(event{kind: evText, role: role, content: content})
	}
	client.OnAudioChunk = func(data []byte) {
		buf := make([]byte, len(data))
		copy(buf, data)
		push(event{kind: evAudio, audio: buf})
	}
	client.OnAudioDone = func() { push(event{kind: evAudioDone}) }
	client.OnServerError = func(serr *agent.ServerError) {
		push(event{kind: evServerError, serr: serr})
	}
	client.OnWarning = func(code, desc string) {
		push(event{kind: evWarning, code: code, desc: desc})
	}
	client.OnClose = func(err error) { push(event{kind: evClosed, err: err}) }

	r.client = client
	return client
}
