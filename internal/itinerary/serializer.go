package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// DefaultWriteTimeout bounds a single queued write.
const DefaultWriteTimeout = 10 * time.Second

// ErrClosed is returned when submitting to a closed Serializer.
var ErrClosed = errors.New("write queue closed")

// Serializer runs write jobs one at a time per day, in submission order.
// Different days proceed in parallel. Submit never blocks.
type Serializer struct {
	timeout time.Duration
	log     *slog.Logger

	mu     sync.Mutex
	lanes  map[int]*lane
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	run  func(ctx context.Context) error
	done func(err error)
}

// lane is the FIFO of one day. Its worker exits when the queue drains and is
// restarted by the next Submit.
type lane struct {
	queue   []job
	running bool
}

// NewSerializer returns a serializer whose jobs each get timeout to finish.
func NewSerializer(timeout time.Duration, log *slog.Logger) *Serializer {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Serializer{timeout: timeout, log: log, lanes: make(map[int]*lane)}
}

// Submit queues run on day's lane. done is called with run's result from the
// lane goroutine. A run that exceeds the timeout fails with ErrWriteFailed.
func (s *Serializer) Submit(day int, run func(ctx context.Context) error, done func(err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	l, ok := s.lanes[day]
	if !ok {
		l = &lane{}
		s.lanes[day] = l
	}
	l.queue = append(l.queue, job{run: run, done: done})
	if !l.running {
		l.running = true
		s.wg.Add(1)
		go s.work(day, l)
	}
	return nil
}

func (s *Serializer) work(day int, l *lane) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			delete(s.lanes, day)
			s.mu.Unlock()
			return
		}
		j := l.queue[0]
		l.queue[0] = job{}
		l.queue = l.queue[1:]
		s.mu.Unlock()

		err := s.runJob(day, j.run)
		if j.done != nil {
			j.done(err)
		}
	}
}

func (s *Serializer) runJob(day int, run func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("write job panicked", "day", day, "panic", r)
			err = types.WriteFailed("queued write", fmt.Errorf("panic: %v", r))
		}
	}()

	err = run(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, types.ErrWriteFailed) {
		err = types.WriteFailed("queued write", fmt.Errorf("timed out after %s: %w", s.timeout, err))
	}
	return err
}

// Close stops accepting jobs and waits for queued ones to finish or for ctx
// to end.
func (s *Serializer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
