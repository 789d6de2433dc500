package executor

import "sync"

// Serial runs tasks one at a time on a single worker goroutine, in
// submission order. It is the in-tree named alternate executor for exports
// whose bodies must never run concurrently with each other.
type Serial struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

// NewSerial creates a serial executor and starts its worker.
func NewSerial() *Serial {
	s := &Serial{}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Submit implements bridgeruntime.Executor. It never blocks; the task is
// queued and runs after all previously submitted tasks. Tasks submitted
// after Close are dropped.
func (s *Serial) Submit(task func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, task)
	s.mu.Unlock()
	s.cond.Signal()
}

// Close stops the worker after the queue drains. Idempotent.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *Serial) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}
