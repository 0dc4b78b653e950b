package session

import (
	"bufio"
	"io"

	"github.com/gpuorch/gpud/internal/streamer"
)

// readWorkerEvents parses r's lines into framed Events on its own goroutine,
// closing the returned channel once r is exhausted — the same blocking-log
// bridge shape as internal/streamer.Stream, reused here because exec's
// stdout is just as synchronous a source as a container's log stream.
func readWorkerEvents(r io.Reader) <-chan streamer.Event {
	out := make(chan streamer.Event, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			out <- streamer.ParseLine(scanner.Text())
		}
	}()
	return out
}
