package runtime

import "sync"

// MemorySink holds injected CSS in memory, keyed by instance. It backs
// headless operation — tests, the HTTP surface serving generated
// stylesheets — where no document to inject into exists.
type MemorySink struct {
	mu     sync.RWMutex
	sheets map[string]string
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{sheets: make(map[string]string)}
}

// Inject stores the instance's CSS, replacing any previous sheet.
func (s *MemorySink) Inject(instanceID, css string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[instanceID] = css
	return nil
}

// Retract drops the instance's CSS.
func (s *MemorySink) Retract(instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sheets, instanceID)
	return nil
}

// Get returns the currently injected CSS for an instance.
func (s *MemorySink) Get(instanceID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	css, ok := s.sheets[instanceID]
	return css, ok
}

// Len returns the number of instances holding injected CSS.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sheets)
}
