package streamer

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gpuorch/gpud/internal/containerruntime"
)

type fakeRuntime struct {
	containerruntime.Runtime
	logs      string
	logsErr   error
	blockLogs bool
	stopCalls int
}

func (f *fakeRuntime) StreamLogs(_ context.Context, _ string, _ bool) (io.ReadCloser, error) {
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	if f.blockLogs {
		pr, _ := io.Pipe()
		return pr, nil
	}
	return io.NopCloser(strings.NewReader(f.logs)), nil
}

func (f *fakeRuntime) Stop(_ context.Context, _ string, _ time.Duration) error {
	f.stopCalls++
	return nil
}

func collect(seq func(func(Event) bool)) []Event {
	var out []Event
	seq(func(e Event) bool {
		out = append(out, e)
		return true
	})
	return out
}

func TestStreamHappyPath(t *testing.T) {
	rt := &fakeRuntime{logs: strings.Join([]string{
		`{"event":"connection","status":"allocated","gpu_id":"0"}`,
		`{"event":"text_delta","delta":"hello"}`,
		`{"event":"finish","status":"completed"}`,
	}, "\n") + "\n"}

	events := collect(Stream(context.Background(), rt, "c1", time.Second))

	require.Len(t, events, 4)
	require.Equal(t, Worker{Status: "created", ContainerID: "c1"}, events[0])
	require.Equal(t, Connection{Status: "allocated", GPUID: "0"}, events[1])
	require.Equal(t, TextDelta{Delta: "hello"}, events[2])
	require.Equal(t, TaskFinish{Status: "completed"}, events[3])
}

func TestStreamDegradesUnparseableLines(t *testing.T) {
	rt := &fakeRuntime{logs: "plain text line\n" + `{"event":"finish","status":"completed"}` + "\n"}

	events := collect(Stream(context.Background(), rt, "c1", time.Second))

	require.Len(t, events, 3)
	require.Equal(t, Logs{Level: "info", Message: "plain text line"}, events[1])
	require.Equal(t, TaskFinish{Status: "completed"}, events[2])
}

func TestStreamExitWithoutFinish(t *testing.T) {
	rt := &fakeRuntime{logs: `{"event":"text_delta","delta":"partial"}` + "\n"}

	events := collect(Stream(context.Background(), rt, "c1", time.Second))

	require.Len(t, events, 3)
	last := events[len(events)-1].(TaskFinish)
	require.Equal(t, "failed", last.Status)
	require.Equal(t, "exited without finish", last.Error)
}

func TestStreamDeadlineExceeded(t *testing.T) {
	rt := &fakeRuntime{blockLogs: true}

	events := collect(Stream(context.Background(), rt, "c1", 10*time.Millisecond))

	last := events[len(events)-1].(TaskFinish)
	require.Equal(t, "timeout", last.Status)
	require.Equal(t, 1, rt.stopCalls)
}

func TestStreamStopsEarlyWhenConsumerBreaks(t *testing.T) {
	rt := &fakeRuntime{logs: strings.Join([]string{
		`{"event":"connection","status":"allocated","gpu_id":"0"}`,
		`{"event":"text_delta","delta":"hello"}`,
		`{"event":"finish","status":"completed"}`,
	}, "\n") + "\n"}

	var seen []Event
	Stream(context.Background(), rt, "c1", time.Second)(func(e Event) bool {
		seen = append(seen, e)
		return len(seen) < 2
	})

	require.Len(t, seen, 2)
}
