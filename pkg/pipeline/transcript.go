package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TranscriptLog appends completed turns to a JSONL file, one object
// per line. The file is opened append-only so restarts extend an
// existing log.
type TranscriptLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// OpenTranscriptLog opens or creates the log file at path.
func OpenTranscriptLog(path string) (*TranscriptLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript log: %w", err)
	}
	return &TranscriptLog{file: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one turn as a JSON line.
func (l *TranscriptLog) Append(turn Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(turn); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (l *TranscriptLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
