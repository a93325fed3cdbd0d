package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCategorySink_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	s := NewCategorySink(dir)
	defer s.Close()

	s.Write(CategoryPoolTracking, map[string]string{"pool": "p1"})
	s.Write(CategoryPoolTracking, map[string]string{"pool": "p2"})
	s.Write(CategoryTransaction, map[string]string{"txId": "sig1"})

	f, err := os.Open(filepath.Join(dir, "pool-tracking.log"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var entry categoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines, err)
		}
		if entry.Category != CategoryPoolTracking {
			t.Errorf("expected category pool-tracking, got %s", entry.Category)
		}
		if entry.Timestamp == "" {
			t.Error("expected timestamp")
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}

	if _, err := os.Stat(filepath.Join(dir, "transaction.log")); err != nil {
		t.Errorf("expected transaction.log: %v", err)
	}
}

func TestCategorySink_SwallowsFailures(t *testing.T) {
	// An unwritable directory must not panic or error out.
	s := NewCategorySink("/proc/no-such-dir/logs")
	defer s.Close()

	s.Write(CategoryStream, map[string]string{"state": "connected"})
	s.Write(CategoryStream, func() {}) // unmarshalable payload
}

func TestCategorySink_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	s := NewCategorySink(dir)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Write(CategoryTransaction, map[string]int{"worker": i, "n": j})
			}
		}(i)
	}
	wg.Wait()

	f, err := os.Open(filepath.Join(dir, "transaction.log"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry categoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("interleaved write corrupted line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 400 {
		t.Errorf("expected 400 lines, got %d", lines)
	}
}
