package chunker

import (
	"io"
	"time"

	sse "github.com/gin-contrib/sse"

	"github.com/agentrelay/agentrelay/pkg/jsonutil"
)

const (
	doneSentinel       = "[DONE]"
	keepAliveInterval  = 30 * time.Second
	keepAlivePayload   = ": keep-alive\n\n"
)

// Framer serializes chunks as server-sent events: one "data:" line per
// chunk body, a "[DONE]" sentinel on stream close, and periodic
// keep-alive comments.
type Framer struct {
	w io.Writer
}

// NewFramer wraps w (typically a gin ResponseWriter) as an SSE framer.
func NewFramer(w io.Writer) *Framer { return &Framer{w: w} }

// WriteChunk serializes v as JSON and writes it as one "data:" line via
// gin-contrib/sse's Event framing, in place of hand-written line formatting.
// Data is passed as a string (not []byte) so sse.Encode writes it verbatim
// instead of re-encoding it as JSON.
func (f *Framer) WriteChunk(v interface{}) error {
	body, err := jsonutil.MarshalString(v)
	if err != nil {
		return err
	}
	return sse.Encode(f.w, sse.Event{Data: body})
}

// WriteDone emits the terminal "[DONE]" sentinel.
func (f *Framer) WriteDone() error {
	return sse.Encode(f.w, sse.Event{Data: doneSentinel})
}

// WriteKeepAlive emits one fixed-payload keep-alive comment line.
func (f *Framer) WriteKeepAlive() error {
	_, err := io.WriteString(f.w, keepAlivePayload)
	return err
}

// KeepAliveInterval is the cadence at which callers should invoke
// WriteKeepAlive while no other chunk has been written.
func KeepAliveInterval() time.Duration { return keepAliveInterval }
