// Package streamer turns a container's raw log lines into the framed Event
// sequence an HTTP caller consumes, enforcing a deadline and guaranteeing
// exactly one terminal TaskFinish per stream.
package streamer

// Event is a closed sum type: the concrete variants below are the only
// implementations, enforced by the unexported marker method.
type Event interface {
	isEvent()
}

// Connection reports the outcome of resource acquisition (GPU lease,
// session lookup) before any worker output exists.
type Connection struct {
	Status    string `json:"status"`
	GPUID     string `json:"gpu_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (Connection) isEvent() {}

// Worker reports the worker container's lifecycle.
type Worker struct {
	Status      string `json:"status"`
	ContainerID string `json:"container_id,omitempty"`
}

func (Worker) isEvent() {}

// TextDelta carries an incremental chunk of generated text.
type TextDelta struct {
	Delta string `json:"delta"`
}

func (TextDelta) isEvent() {}

// Text carries a complete text payload, as opposed to an incremental delta.
type Text struct {
	Content string `json:"content"`
}

func (Text) isEvent() {}

// Logs carries a raw, unstructured log line that could not be parsed as a
// framed event, or a diagnostic emitted by the streamer itself.
type Logs struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (Logs) isEvent() {}

// TaskFinish is the terminal event closing every stream exactly once.
type TaskFinish struct {
	Status  string  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Elapsed float64 `json:"elapsed,omitempty"`
}

func (TaskFinish) isEvent() {}

// Tag returns ev's wire discriminator for the outbound SSE stream:
// connection|worker|text_delta|text|logs|task_finish.
func Tag(ev Event) string {
	switch ev.(type) {
	case Connection:
		return "connection"
	case Worker:
		return "worker"
	case TextDelta:
		return "text_delta"
	case Text:
		return "text"
	case Logs:
		return "logs"
	case TaskFinish:
		return "task_finish"
	default:
		return "logs"
	}
}

// frame is the wire shape of one JSON-per-line event emitted by a worker:
// a string discriminator plus variant-specific siblings.
type frame struct {
	Event       string  `json:"event"`
	Status      string  `json:"status"`
	GPUID       string  `json:"gpu_id"`
	SessionID   string  `json:"session_id"`
	Message     string  `json:"message"`
	ContainerID string  `json:"container_id"`
	Delta       string  `json:"delta"`
	Content     string  `json:"content"`
	Level       string  `json:"level"`
	Error       string  `json:"error"`
	Elapsed     float64 `json:"elapsed"`
}

func (f frame) toEvent() Event {
	switch f.Event {
	case "connection":
		return Connection{Status: f.Status, GPUID: f.GPUID, SessionID: f.SessionID, Message: f.Message}
	case "worker":
		return Worker{Status: f.Status, ContainerID: f.ContainerID}
	case "text_delta":
		return TextDelta{Delta: f.Delta}
	case "text":
		return Text{Content: f.Content}
	case "logs":
		return Logs{Level: f.Level, Message: f.Message}
	case "finish", "task_finish":
		return TaskFinish{Status: f.Status, Error: f.Error, Elapsed: f.Elapsed}
	default:
		return nil
	}
}
