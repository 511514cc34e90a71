// Package host connects ember to the agent host's event socket. The host
// pushes "session idle" and "about to compact" notifications over a single
// websocket; ember sends message-history reads, prompt dispatches, and
// compaction context back over the same connection as JSON frames.
package host

// FrameType identifies the type of a frame on the host socket.
type FrameType string

const (
	// Host -> ember notifications

	// FrameTypeIdle signals that the agent finished producing output for a
	// turn and is awaiting the next input.
	FrameTypeIdle FrameType = "idle"
	// FrameTypeCompact signals that the host is about to summarize or
	// discard conversation history.
	FrameTypeCompact FrameType = "compact"
	// FrameTypeReply answers an ember request, correlated by ID.
	FrameTypeReply FrameType = "reply"

	// ember -> host requests

	// FrameTypeLatestMessage requests the most recent agent-authored
	// message text for a session.
	FrameTypeLatestMessage FrameType = "latest_message"
	// FrameTypeSendMessage posts a new message into a session,
	// fire-and-forget.
	FrameTypeSendMessage FrameType = "send_message"
	// FrameTypeContext supplies durable loop context in response to a
	// compact notification.
	FrameTypeContext FrameType = "context"
)

// Frame is the JSON envelope exchanged on the host socket.
type Frame struct {
	// Type identifies what kind of frame this is.
	Type FrameType `json:"type"`

	// ID correlates a request with its reply. Empty on notifications.
	ID string `json:"id,omitempty"`

	// SessionID scopes the frame to one agent session.
	SessionID string `json:"session_id,omitempty"`

	// Text carries message content, prompt text, or reply payload.
	Text string `json:"text,omitempty"`

	// Error is set on a reply when the host could not serve the request.
	Error string `json:"error,omitempty"`
}
