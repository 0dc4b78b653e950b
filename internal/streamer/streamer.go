package streamer

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"iter"
	"time"

	"github.com/gpuorch/gpud/internal/containerruntime"
)

// logLine carries one line from the blocking log-reader goroutine to the
// Stream consumer, or the error that ended the read loop.
type logLine struct {
	text string
	err  error
}

// Stream produces the Event sequence for containerID: a Worker{created}
// prologue, then one Event per parsed (or unparsed, degraded) log line,
// always ending in exactly one TaskFinish. The blocking log-reader runs on
// its own goroutine so the caller's iteration never blocks on the
// container runtime's synchronous log source.
func Stream(ctx context.Context, rt containerruntime.Runtime, containerID string, deadline time.Duration) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !yield(Worker{Status: "created", ContainerID: containerID}) {
			return
		}

		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		rc, err := rt.StreamLogs(streamCtx, containerID, true)
		if err != nil {
			yield(TaskFinish{Status: "failed", Error: err.Error()})
			return
		}
		defer rc.Close()

		lines := make(chan logLine, 16)
		go readLines(rc, lines)

		timer := time.NewTimer(deadline)
		defer timer.Stop()
		start := time.Now()

		for {
			select {
			case ll, ok := <-lines:
				if !ok {
					if !yield(TaskFinish{Status: "failed", Error: "exited without finish"}) {
						return
					}
					return
				}
				if ll.err != nil {
					if !yield(TaskFinish{Status: "failed", Error: ll.err.Error()}) {
						return
					}
					return
				}
				ev := parseLine(ll.text)
				if tf, ok := ev.(TaskFinish); ok {
					yield(tf)
					return
				}
				if !yield(ev) {
					return
				}
			case <-timer.C:
				rt.Stop(ctx, containerID, 5*time.Second)
				yield(TaskFinish{Status: "timeout", Elapsed: time.Since(start).Seconds()})
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

func readLines(rc io.ReadCloser, out chan<- logLine) {
	defer close(out)
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- logLine{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		out <- logLine{err: err}
	}
}

func parseLine(line string) Event {
	return ParseLine(line)
}

// ParseLine parses a single worker log line into its framed Event, or
// degrades it to a Logs event if it is not a recognized frame.
func ParseLine(line string) Event {
	var f frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return Logs{Level: "info", Message: line}
	}
	ev := f.toEvent()
	if ev == nil {
		return Logs{Level: "info", Message: line}
	}
	return ev
}
