package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thruflo/ember/internal/logging"
	"github.com/thruflo/ember/internal/loop"
)

// DefaultReplyTimeout bounds how long a request waits for its reply frame.
const DefaultReplyTimeout = 30 * time.Second

// Handler reacts to host notifications. The loop Controller satisfies it.
type Handler interface {
	HandleIdle(ctx context.Context, sessionID string) loop.Result
	CompactionReport() string
}

// Bridge is a websocket client for the host's event socket. It implements
// loop.HistoryReader and loop.Dispatcher by correlating request frames with
// reply frames, and Run feeds host notifications to a Handler.
type Bridge struct {
	conn *websocket.Conn
	log  *logging.Logger

	replyTimeout time.Duration

	// writeMu serializes frame writes; the websocket allows one writer.
	writeMu sync.Mutex

	// pendingMu protects pending, the reply channels keyed by request ID.
	pendingMu sync.Mutex
	pending   map[string]chan Frame
}

// Options holds configuration for creating a Bridge.
type Options struct {
	ReplyTimeout time.Duration   // optional; defaults to DefaultReplyTimeout
	Logger       *logging.Logger // optional; defaults to the package logger
}

// Dial connects to the host's event socket at the given websocket URL.
func Dial(ctx context.Context, url string, opts Options) (*Bridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host at %s: %w", url, err)
	}
	return NewBridge(conn, opts), nil
}

// NewBridge wraps an established websocket connection. Exported for tests.
func NewBridge(conn *websocket.Conn, opts Options) *Bridge {
	timeout := opts.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Bridge{
		conn:         conn,
		log:          log,
		replyTimeout: timeout,
		pending:      make(map[string]chan Frame),
	}
}

// Close closes the underlying connection.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// LatestAgentText implements loop.HistoryReader over the host socket.
func (b *Bridge) LatestAgentText(ctx context.Context, sessionID string) (string, error) {
	reply, err := b.request(ctx, Frame{
		Type:      FrameTypeLatestMessage,
		SessionID: sessionID,
	})
	if err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", fmt.Errorf("host could not read history: %s", reply.Error)
	}
	return reply.Text, nil
}

// SendMessage implements loop.Dispatcher. Dispatch is fire-and-forget: a
// successful write is a successful send.
func (b *Bridge) SendMessage(ctx context.Context, sessionID, text string) error {
	return b.writeFrame(Frame{
		Type:      FrameTypeSendMessage,
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
	})
}

// request writes a frame with a fresh ID and waits for the matching reply.
func (b *Bridge) request(ctx context.Context, f Frame) (Frame, error) {
	f.ID = uuid.NewString()

	ch := make(chan Frame, 1)
	b.pendingMu.Lock()
	b.pending[f.ID] = ch
	b.pendingMu.Unlock()

	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, f.ID)
		b.pendingMu.Unlock()
	}()

	if err := b.writeFrame(f); err != nil {
		return Frame{}, err
	}

	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-time.After(b.replyTimeout):
		return Frame{}, fmt.Errorf("timed out waiting for host reply to %s", f.Type)
	case reply, ok := <-ch:
		if !ok {
			return Frame{}, errors.New("host connection closed")
		}
		return reply, nil
	}
}

func (b *Bridge) writeFrame(f Frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", f.Type, err)
	}
	return nil
}

// Run reads host notifications until the context is canceled or the
// connection drops. Idle signals run on their own goroutine so reply frames
// for the handler's collaborator calls keep flowing; duplicate signals for
// a session are dropped by the controller's guard, not queued here.
func (b *Bridge) Run(ctx context.Context, handler Handler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			b.conn.Close()
		case <-done:
		}
	}()

	for {
		var f Frame
		if err := b.conn.ReadJSON(&f); err != nil {
			b.failPending()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("host connection closed: %w", err)
		}

		switch f.Type {
		case FrameTypeReply:
			b.resolve(f)

		case FrameTypeIdle:
			go func(sessionID string) {
				res := handler.HandleIdle(ctx, sessionID)
				b.log.Debug("idle signal handled",
					"session", sessionID, "outcome", res.Outcome.String())
			}(f.SessionID)

		case FrameTypeCompact:
			if report := handler.CompactionReport(); report != "" {
				if err := b.writeFrame(Frame{
					Type:      FrameTypeContext,
					SessionID: f.SessionID,
					Text:      report,
				}); err != nil {
					b.log.Warn("failed to send compaction context", "error", err)
				}
			}

		default:
			b.log.Debug("ignoring unknown frame", "type", string(f.Type))
		}
	}
}

// resolve delivers a reply to its waiting request, if still pending.
func (b *Bridge) resolve(f Frame) {
	b.pendingMu.Lock()
	ch, ok := b.pending[f.ID]
	if ok {
		delete(b.pending, f.ID)
	}
	b.pendingMu.Unlock()

	if !ok {
		b.log.Debug("reply for unknown request", "id", f.ID)
		return
	}
	ch <- f
}

// failPending wakes every waiting request after the connection drops.
func (b *Bridge) failPending() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
}
