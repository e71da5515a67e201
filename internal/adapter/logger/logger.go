package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// New returns a logr.Logger that writes one JSON entry per line to stdout.
func New(service string) logr.Logger {
	hostname, _ := os.Hostname()
	return logr.New(&jsonSink{
		service:  service,
		hostname: hostname,
		mu:       &sync.Mutex{},
	})
}

type jsonSink struct {
	service  string
	hostname string
	name     string
	values   []any
	mu       *sync.Mutex
}

var _ logr.LogSink = (*jsonSink)(nil)

func (s *jsonSink) Init(logr.RuntimeInfo) {}

func (s *jsonSink) Enabled(level int) bool {
	return level <= 1
}

func (s *jsonSink) Info(level int, msg string, keysAndValues ...any) {
	lvl := "INFO"
	if level > 0 {
		lvl = "DEBUG"
	}
	s.write(lvl, msg, nil, keysAndValues)
}

func (s *jsonSink) Error(err error, msg string, keysAndValues ...any) {
	s.write("ERROR", msg, err, keysAndValues)
}

func (s *jsonSink) WithValues(keysAndValues ...any) logr.LogSink {
	clone := *s
	clone.values = append(append([]any{}, s.values...), keysAndValues...)
	return &clone
}

func (s *jsonSink) WithName(name string) logr.LogSink {
	clone := *s
	if clone.name != "" {
		clone.name += "/"
	}
	clone.name += name
	return &clone
}

func (s *jsonSink) write(level, msg string, err error, keysAndValues []any) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   s.service,
		Hostname:  s.hostname,
		Logger:    s.name,
		Message:   msg,
		Details:   toDetails(append(append([]any{}, s.values...), keysAndValues...)),
	}
	if err != nil {
		entry.Error = &ErrorInfo{Msg: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	json.NewEncoder(os.Stdout).Encode(entry)
}

func toDetails(keysAndValues []any) map[string]any {
	if len(keysAndValues) == 0 {
		return nil
	}
	details := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		details[key] = keysAndValues[i+1]
	}
	return details
}
