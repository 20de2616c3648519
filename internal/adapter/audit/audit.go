package audit

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one audit record: which entity kind was touched, what happened,
// and the payload that was written.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	Data      any       `json:"data,omitempty"`
}

// FileLogger appends JSON-lines entries to a single file. Unlike the
// snapshot stores it is append-only: audit history is never rewritten.
type FileLogger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileLogger(path string) *FileLogger {
	return &FileLogger{path: path, now: time.Now}
}

func (l *FileLogger) Log(_ context.Context, entity, action string, data any) error {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Entity:    entity,
		Action:    action,
		Data:      data,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding audit entry")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening audit log %s", l.path)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrapf(err, "appending to audit log %s", l.path)
	}
	return nil
}

// ReadAll decodes every entry currently in the log, oldest first.
func (l *FileLogger) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading audit log %s", l.path)
	}

	var entries []Entry
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '\n' {
			if i > start {
				var e Entry
				if err := json.Unmarshal(raw[start:i], &e); err != nil {
					return nil, errors.Wrapf(err, "decoding audit log %s", l.path)
				}
				entries = append(entries, e)
			}
			start = i + 1
		}
	}
	return entries, nil
}

// Discard is the no-op logger used when auditing is disabled.
type Discard struct{}

func (Discard) Log(context.Context, string, string, any) error { return nil }
