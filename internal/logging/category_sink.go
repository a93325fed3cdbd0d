package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event log categories.
const (
	CategoryPoolTracking = "pool-tracking"
	CategoryTransaction  = "transaction"
	CategoryStream       = "stream"
)

// CategorySink appends JSON lines to one file per category under a
// directory. It is an audit trail, not a control path: every failure is
// swallowed so logging can never interrupt tracking.
type CategorySink struct {
	dir   string
	mu    sync.Mutex
	files map[string]*os.File
}

// NewCategorySink creates a sink writing <dir>/<category>.log files. The
// directory is created on first use.
func NewCategorySink(dir string) *CategorySink {
	return &CategorySink{
		dir:   dir,
		files: make(map[string]*os.File),
	}
}

type categoryEntry struct {
	Timestamp string      `json:"timestamp"`
	Category  string      `json:"category"`
	Data      interface{} `json:"data"`
}

// Write appends one entry to the category file.
func (s *CategorySink) Write(category string, data interface{}) {
	line, err := json.Marshal(categoryEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Category:  category,
		Data:      data,
	})
	if err != nil {
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.file(category)
	if err != nil {
		return
	}
	f.Write(line)
}

func (s *CategorySink) file(category string) (*os.File, error) {
	if f, ok := s.files[category]; ok {
		return f, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, category+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	s.files[category] = f
	return f, nil
}

// Close closes all open category files.
func (s *CategorySink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		f.Close()
	}
	s.files = make(map[string]*os.File)
}
