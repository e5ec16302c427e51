package weather

import (
	"log/slog"
	"sync"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/repository"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

const sinkBuffer = 256

// asyncSink decouples the tracker from sqlite: transitions are handed off to
// a buffered channel and written by a single goroutine, so the tracker's
// state changes never block on disk. When the buffer is full the transition
// is dropped with a warning; the event log is an audit trail, not the source
// of truth.
type asyncSink struct {
	repo   repository.EventRepository
	logger *slog.Logger

	ch        chan types.Transition
	closeOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newAsyncSink(repo repository.EventRepository, logger *slog.Logger) *asyncSink {
	s := &asyncSink{
		repo:   repo,
		logger: logger,
		ch:     make(chan types.Transition, sinkBuffer),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *asyncSink) loop() {
	defer close(s.done)
	for tr := range s.ch {
		if err := s.repo.InsertTransition(tr); err != nil {
			s.logger.Error("failed to persist status transition",
				"station_id", tr.StationID,
				"to", string(tr.To),
				"error", err,
			)
		}
	}
}

// OnTransition implements tracker.TransitionSink. Never blocks, and a
// transition arriving after Close (a last tick racing shutdown) is dropped
// instead of hitting the closed channel.
func (s *asyncSink) OnTransition(tr types.Transition) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- tr:
	default:
		s.logger.Warn("transition log buffer full, dropping event",
			"station_id", tr.StationID,
			"to", string(tr.To),
		)
	}
}

// Close drains buffered transitions and stops the writer goroutine.
func (s *asyncSink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ch)
	})
	<-s.done
}
