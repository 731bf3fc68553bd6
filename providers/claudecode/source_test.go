package claudecode

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

func TestProcessSource_LateInjectionDropped(t *testing.T) {
	s := newProcessSource(context.Background(), newProcessManager(Config{}), nil)
	defer s.Close()

	s.finishInput()

	select {
	case err := <-s.Inject("too late"):
		assert.ErrorIs(t, err, ccprovider.ErrTurnFinished)
	case <-time.After(time.Second):
		t.Fatal("late injection never acked")
	}
}

func TestProcessSource_FinishDrainsPendingInjections(t *testing.T) {
	s := &processSource{
		pm:         newProcessManager(Config{}),
		events:     make(chan Message),
		injections: make(chan injection, injectionQueueSize),
	}

	// Queue without a write loop running, so the injection stays pending.
	ack := s.Inject("pending")
	s.finishInput()

	select {
	case err := <-ack:
		assert.ErrorIs(t, err, ccprovider.ErrTurnFinished)
	case <-time.After(time.Second):
		t.Fatal("pending injection never acked")
	}
}

func TestProcessSource_ConcurrentInjectAndFinish(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := &processSource{
			pm:         newProcessManager(Config{}),
			events:     make(chan Message),
			injections: make(chan injection, injectionQueueSize),
		}

		acks := make(chan (<-chan error), 4)
		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				acks <- s.Inject("racing")
			}()
		}
		s.finishInput()
		wg.Wait()
		close(acks)

		// Every injection resolves, whether it landed before the turn
		// finished or was turned away after.
		for ack := range acks {
			select {
			case <-ack:
			case <-time.After(time.Second):
				t.Fatal("injection never acked")
			}
		}
	}
}

func TestProcessSource_FinishInputIsIdempotent(t *testing.T) {
	s := &processSource{
		pm:         newProcessManager(Config{}),
		events:     make(chan Message),
		injections: make(chan injection, injectionQueueSize),
	}

	s.finishInput()
	require.NotPanics(t, func() { s.finishInput() })
}
