// Package dedup provides the at-most-once processing guard keyed by
// transaction signature.
package dedup

import "sync"

// DefaultRetention is the documented retention window for processed
// signatures. The set is cleared wholesale on this schedule rather than
// per-entry: repeat notifications for signatures older than one window may
// reprocess right after a clear boundary, an accepted trade-off of the
// coarse TTL design.
const DefaultRetention = "@every 1h"

// SignatureSet tracks transaction signatures that completed processing,
// plus signatures with a resolution currently in flight. Safe for
// concurrent use.
type SignatureSet struct {
	mu        sync.RWMutex
	processed map[string]struct{}
	inflight  map[string]struct{}
}

// NewSignatureSet creates an empty signature set.
func NewSignatureSet() *SignatureSet {
	return &SignatureSet{
		processed: make(map[string]struct{}),
		inflight:  make(map[string]struct{}),
	}
}

// Seen reports whether the signature was already processed.
func (s *SignatureSet) Seen(signature string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[signature]
	return ok
}

// Begin claims the signature for resolution. It returns false when the
// signature was already processed or another resolution for it is in
// flight, guaranteeing a single concurrent resolution per signature.
func (s *SignatureSet) Begin(signature string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processed[signature]; ok {
		return false
	}
	if _, ok := s.inflight[signature]; ok {
		return false
	}
	s.inflight[signature] = struct{}{}
	return true
}

// Mark records the signature as processed and releases the in-flight claim.
// Called after the event was resolved and emitted.
func (s *SignatureSet) Mark(signature string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, signature)
	s.processed[signature] = struct{}{}
}

// Release drops the in-flight claim without marking the signature
// processed, so a later notification may retry a failed resolution.
func (s *SignatureSet) Release(signature string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, signature)
}

// Clear drops all processed signatures and returns how many were dropped.
// In-flight claims survive so running resolutions still complete exactly once.
func (s *SignatureSet) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.processed)
	s.processed = make(map[string]struct{})
	return n
}

// Len returns the number of processed signatures currently retained.
func (s *SignatureSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processed)
}
