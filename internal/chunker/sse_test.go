package chunker

import (
	"bytes"
	"strings"
	"testing"
)

func TestFramerWriteChunkEmitsDataLine(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)
	if err := f.WriteChunk(map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "data:") {
		t.Fatalf("expected output to start with a data: line, got %q", out)
	}
	if !strings.Contains(out, `"hello":"world"`) {
		t.Fatalf("expected the marshaled chunk body in the data line, got %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("expected a trailing blank line terminating the event, got %q", out)
	}
}

func TestFramerWriteDoneEmitsSentinel(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)
	if err := f.WriteDone(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), doneSentinel) {
		t.Fatalf("expected the [DONE] sentinel in output, got %q", buf.String())
	}
}

func TestFramerWriteKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)
	if err := f.WriteKeepAlive(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != keepAlivePayload {
		t.Fatalf("expected the fixed keep-alive payload, got %q", buf.String())
	}
}
