package claudecode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// injectionQueueSize bounds how many user messages may be pending delivery
// to the CLI at once.
const injectionQueueSize = 8

// eventSource yields parsed upstream messages. processSource reads from a
// live CLI process; tests substitute a scripted source.
type eventSource interface {
	// Events returns the message channel. The channel closes when the
	// upstream stream ends, for any reason.
	Events() <-chan Message

	// Err reports why the stream ended. Nil means a clean close.
	Err() error

	// BufferedBytes reports how many raw bytes have been consumed from the
	// upstream stream so far.
	BufferedBytes() int

	// Close shuts the source down and releases its resources.
	Close() error
}

// injector accepts mid-turn user input for delivery to the agent.
type injector interface {
	// Inject queues text for delivery as a user message. The returned
	// channel receives exactly one error: nil once the message is written
	// to the agent, or a reason it was dropped.
	Inject(text string) <-chan error
}

type injection struct {
	text string
	ack  chan error
}

// processSource adapts a running CLI process into an eventSource.
type processSource struct {
	pm     *processManager
	logger *slog.Logger

	events     chan Message
	injections chan injection

	mu         sync.Mutex
	err        error
	bytes      int
	inputDone  bool
	closeOnce  sync.Once
	finishOnce sync.Once
}

func newProcessSource(ctx context.Context, pm *processManager, logger *slog.Logger) *processSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &processSource{
		pm:         pm,
		logger:     logger,
		events:     make(chan Message, 10),
		injections: make(chan injection, injectionQueueSize),
	}
	go s.readLoop(ctx)
	go s.writeLoop(ctx)
	return s
}

func (s *processSource) Events() <-chan Message { return s.events }

func (s *processSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *processSource) BufferedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Inject queues text for delivery to the agent as a user message.
// Injections after the turn finishes are acked with ErrTurnFinished.
func (s *processSource) Inject(text string) <-chan error {
	ack := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputDone {
		ack <- ccprovider.ErrTurnFinished
		return ack
	}

	// The mutex also excludes finishInput's close, so this send can never
	// hit a closed channel.
	select {
	case s.injections <- injection{text: text, ack: ack}:
	default:
		ack <- errors.New("injection queue full")
	}
	return ack
}

// finishInput marks the turn as finished and drains pending injections with
// a negative ack. Called once the result message arrives or the stream ends.
func (s *processSource) finishInput() {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.inputDone = true
		close(s.injections)
		s.mu.Unlock()
		for inj := range s.injections {
			inj.ack <- ccprovider.ErrTurnFinished
		}
	})
}

func (s *processSource) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case inj, ok := <-s.injections:
			if !ok {
				return
			}
			err := s.pm.WriteMessage(NewUserTextMessage(inj.text))
			inj.ack <- err
		}
	}
}

func (s *processSource) readLoop(ctx context.Context) {
	defer close(s.events)

	for {
		line, err := s.pm.ReadLine()
		if len(line) > 0 {
			s.mu.Lock()
			s.bytes += len(line)
			s.mu.Unlock()

			msg, perr := ParseMessage(line)
			if perr != nil {
				s.setErr(perr)
				return
			}
			if msg != nil {
				select {
				case s.events <- msg:
				case <-ctx.Done():
					s.setErr(ctx.Err())
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("upstream read ended", "error", err)
				s.setErr(err)
			}
			return
		}
	}
}

func (s *processSource) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *processSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.finishInput()
		err = s.pm.Stop()
	})
	return err
}
