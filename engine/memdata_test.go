package engine

import "sync"

// memSource is an in-memory DataSource, the fake used by every transfer
// test in place of a file.
type memSource struct {
	mu        sync.Mutex
	data      []byte
	off       int
	sendCalls int
	finished  bool
}

func newMemSource(data []byte) *memSource { return &memSource{data: data} }

func (s *memSource) Start() error { return nil }

func (s *memSource) SendData(maxBytes int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	end := s.off + maxBytes
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.off:end]
	s.off = end
	return chunk, nil
}

func (s *memSource) RequestedTransferSize() (uint64, bool) { return uint64(len(s.data)), true }

func (s *memSource) Finished() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

// memSink is an in-memory DataSink.
type memSink struct {
	mu         sync.Mutex
	data       []byte
	writeCalls int
	finished   bool
	tsize      *uint64
}

func newMemSink() *memSink { return &memSink{} }

func (s *memSink) Start() error { return nil }

func (s *memSink) ReceivedTransferSize(size uint64) bool {
	s.mu.Lock()
	s.tsize = &size
	s.mu.Unlock()
	return true
}

func (s *memSink) ReceivedData(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	s.data = append(s.data, b...)
	return nil
}

func (s *memSink) Finished() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

func (s *memSink) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
