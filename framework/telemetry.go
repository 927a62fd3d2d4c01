package framework

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType categorizes telemetry events.
type EventType string

const (
	EventRequestReceived EventType = "request_received"
	EventRequestFinished EventType = "request_finished"
)

// Event captures one step of a format request.
type Event struct {
	Type      EventType     `json:"type"`
	RequestID string        `json:"request_id"`
	Syntax    SyntaxTag     `json:"syntax,omitempty"`
	Scope     string        `json:"scope,omitempty"`
	Strategy  string        `json:"strategy,omitempty"`
	FilePath  string        `json:"file_path,omitempty"`
	Region    Region        `json:"region"`
	Outcome   OutcomeKind   `json:"outcome,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Telemetry receives dispatcher events. Sinks must be safe for concurrent use.
type Telemetry interface {
	Emit(event Event)
}

// MultiplexTelemetry broadcasts events to multiple sinks.
type MultiplexTelemetry struct {
	Sinks []Telemetry
}

// Emit forwards the event to all registered sinks.
func (m MultiplexTelemetry) Emit(event Event) {
	for _, s := range m.Sinks {
		if s != nil {
			s.Emit(event)
		}
	}
}

// JSONFileTelemetry writes events as newline-delimited JSON to a file.
type JSONFileTelemetry struct {
	path string
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewJSONFileTelemetry opens (or creates) the log file.
func NewJSONFileTelemetry(path string) (*JSONFileTelemetry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileTelemetry{
		path: path,
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes the JSON record.
func (j *JSONFileTelemetry) Emit(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc != nil {
		_ = j.enc.Encode(event)
	}
}

// Close releases the file handle.
func (j *JSONFileTelemetry) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	j.enc = nil
	return err
}

// LoggerTelemetry emits finished requests via the standard logger.
type LoggerTelemetry struct {
	Logger *log.Logger
	// Verbose also logs received events and successful outcomes.
	Verbose bool
}

// Emit logs the event.
func (t LoggerTelemetry) Emit(event Event) {
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}
	if !t.Verbose && (event.Type != EventRequestFinished || event.Outcome == OutcomeReplaced) {
		return
	}
	logger.Printf("(reformat) [%s] id=%s syntax=%s outcome=%s took=%s msg=%s\n",
		event.Type, event.RequestID, event.Syntax, event.Outcome, event.Duration, event.Message)
}
