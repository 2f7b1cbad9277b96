package view

import "sync"

// Sequencer numbers in-flight fetches so only the latest response is kept.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
}

// Next issues a new sequence number, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Accept reports whether a response tagged seq may be applied.
func (s *Sequencer) Accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != 0 && seq == s.latest
}

func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
