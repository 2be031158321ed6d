// Package chunker slices agent text into word-boundary-aligned fragments
// for smoother streaming, and frames them as server-sent events.
package chunker

import (
	"strings"
	"time"
)

// Options configures chunk size and inter-chunk delay.
type Options struct {
	ChunkSize      int
	InterChunkDelay time.Duration
	WordBoundary    bool
}

// DefaultOptions matches spec defaults: ~15 characters every ~30ms,
// snapped to word boundaries.
func DefaultOptions() Options {
	return Options{ChunkSize: 15, InterChunkDelay: 30 * time.Millisecond, WordBoundary: true}
}

// Split produces the finite sequence of fragments for text. When
// WordBoundary is set, each fragment's end snaps to the last space within
// the window, or, if none is found, extends to the next space past the
// window.
func Split(text string, o Options) []string {
	if text == "" {
		return nil
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 15
	}

	var fragments []string
	for len(text) > 0 {
		if len(text) <= o.ChunkSize {
			fragments = append(fragments, text)
			break
		}

		window := text[:o.ChunkSize]
		cut := o.ChunkSize

		if o.WordBoundary {
			if idx := strings.LastIndex(window, " "); idx > 0 {
				cut = idx + 1
			} else if idx := strings.Index(text[o.ChunkSize:], " "); idx >= 0 {
				cut = o.ChunkSize + idx + 1
			} else {
				cut = len(text)
			}
		}

		fragments = append(fragments, text[:cut])
		text = text[cut:]
	}
	return fragments
}

// Stream sends each fragment of text on ch, pausing InterChunkDelay
// between fragments, until ctx-like cancellation via done is signaled.
func Stream(text string, o Options, done <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		fragments := Split(text, o)
		for i, f := range fragments {
			select {
			case out <- f:
			case <-done:
				return
			}
			if i < len(fragments)-1 {
				select {
				case <-time.After(o.InterChunkDelay):
				case <-done:
					return
				}
			}
		}
	}()
	return out
}
