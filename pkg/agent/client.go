// Package agent provides a client for the Deepgram Voice Agent converse API,
// a hosted speech-to-text + LLM + text-to-speech pipeline driven over a
// single WebSocket.
//
// The client sends one Settings message after connecting, then scripted text
// turns (InjectUserMessage) or raw audio frames. The agent streams back
// ConversationText events, binary audio frames, and an AgentAudioDone marker
// after each spoken response. A periodic KeepAlive keeps the endpoint from
// closing idle connections; it is suppressed while a response is streaming.
//
// Example usage:
//
//	client := agent.NewClient(
//	    agent.WithAPIKey(os.Getenv("DEEPGRAM_API_KEY")),
//	)
//	client.OnConversationText = func(role, content string) { ... }
//	if err := client.Connect(ctx); err != nil { ... }
//	defer client.Close()
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the hosted converse endpoint.
const DefaultURL = "wss://agent.deepgram.com/v1/agent/converse"

// Client manages the WebSocket connection to the voice agent.
type Client struct {
	config *Config
	logger *slog.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	// lastSent/lastRecv are unix nanos of the most recent frame in each
	// direction, used to gate the keep-alive.
	lastSent atomic.Int64
	lastRecv atomic.Int64

	// Callbacks. Set these before calling Connect; they are invoked from the
	// read goroutine, one at a time.
	OnSettingsApplied  func()
	OnConversationText func(role, content string)
	OnAudioChunk       func(data []byte)
	OnAudioDone        func()
	OnServerError      func(serr *ServerError)
	OnWarning          func(code, description string)
	OnClose            func(err error)

	ctx       context.Context
	cancel    context.CancelFunc
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new voice agent client.
func NewClient(opts ...Option) *Client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Client{
		config:  cfg,
		logger:  cfg.Logger.With("component", "agent"),
		closeCh: make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and
// keep-alive goroutines. The context bounds the whole connection lifetime,
// not just the dial.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.config.Validate(); err != nil {
		return err
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	headers := http.Header{}
	headers.Set("Authorization", "Token "+c.config.APIKey)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(c.ctx, c.config.URL, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("agent: dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("agent: dial failed: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	now := time.Now().UnixNano()
	c.lastSent.Store(now)
	c.lastRecv.Store(now)

	c.logger.Info("connected", "url", c.config.URL)

	go c.readLoop()
	go c.keepAliveLoop()

	return nil
}

// SendSettings transmits the one-time configuration message.
func (c *Client) SendSettings(s Settings) error {
	s.Type = TypeSettings
	return c.sendJSON(s)
}

// InjectUserMessage sends a scripted user turn as text, bypassing STT.
func (c *Client) InjectUserMessage(text string) error {
	return c.sendJSON(injectUserMessage{Type: TypeInjectUserMessage, Content: text})
}

// SendAudio sends a raw audio frame. The bytes are passed through opaque in
// the format declared by Settings.Audio.Input.
func (c *Client) SendAudio(data []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closed() {
		return ErrClosed
	}
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("agent: send audio: %w", err)
	}
	c.lastSent.Store(time.Now().UnixNano())
	return nil
}

// IsConnected returns whether the socket is open.
func (c *Client) IsConnected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.connected
}

// Close terminates the connection and stops background goroutines.
// Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
	if c.cancel != nil {
		c.cancel()
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	return nil
}

// closed reports whether Close has been called.
func (c *Client) closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// sendJSON sends a JSON text frame under the write lock.
func (c *Client) sendJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closed() {
		return ErrClosed
	}
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("agent: send: %w", err)
	}
	c.lastSent.Store(time.Now().UnixNano())
	return nil
}

// readLoop dispatches incoming frames to callbacks until the connection
// closes. Binary frames are audio; text frames are JSON events.
func (c *Client) readLoop() {
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(err)
			return
		}
		c.lastRecv.Store(time.Now().UnixNano())

		if msgType == websocket.BinaryMessage {
			if len(data) > 0 && c.OnAudioChunk != nil {
				c.OnAudioChunk(data)
			}
			continue
		}

		ev, err := parseServerEvent(data)
		if err != nil {
			c.logger.Warn("unparsable server event", "error", err)
			continue
		}

		switch ev.Type {
		case EventSettingsApplied:
			c.logger.Debug("settings applied")
			if c.OnSettingsApplied != nil {
				c.OnSettingsApplied()
			}

		case EventConversationText:
			if c.OnConversationText != nil {
				c.OnConversationText(ev.Role, ev.Content)
			}

		case EventAgentAudioDone:
			if c.OnAudioDone != nil {
				c.OnAudioDone()
			}

		case EventError:
			serr := &ServerError{Code: ev.Code, Description: ev.Description}
			if !serr.Ignorable() {
				c.logger.Warn("server error", "code", serr.Code, "description", serr.Description)
			}
			if c.OnServerError != nil {
				c.OnServerError(serr)
			}

		case EventWarning:
			c.logger.Warn("server warning", "code", ev.Code, "description", ev.Description)
			if c.OnWarning != nil {
				c.OnWarning(ev.Code, ev.Description)
			}

		default:
			c.logger.Debug("unhandled event", "type", ev.Type)
		}
	}
}

// keepAliveLoop sends the liveness message while the connection is idle.
// Ticks are skipped when anything was sent within the interval or when a
// response is still streaming (a frame arrived inside the quiet window), so
// the keep-alive never interleaves with an in-flight turn.
func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(c.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			now := time.Now()
			sinceSent := now.Sub(time.Unix(0, c.lastSent.Load()))
			sinceRecv := now.Sub(time.Unix(0, c.lastRecv.Load()))
			if sinceSent < c.config.KeepAliveInterval || sinceRecv < c.config.QuietWindow {
				continue
			}
			if err := c.sendJSON(keepAlive{Type: TypeKeepAlive}); err != nil {
				return
			}
			c.logger.Debug("keep-alive sent")
		}
	}
}

// handleClose tears down the connection and reports the cause once.
func (c *Client) handleClose(err error) {
	c.connMu.Lock()
	wasConnected := c.connected
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.connMu.Unlock()

	if !wasConnected {
		return
	}

	select {
	case <-c.closeCh:
		// Deliberate Close; a read error here is expected.
		err = nil
	default:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			err = nil
		} else {
			c.logger.Warn("connection closed", "error", err)
		}
	}

	if c.OnClose != nil {
		c.OnClose(err)
	}
}
