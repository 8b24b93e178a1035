package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	gzerrors "github.com/alexandra-wolf/gazet/internal/runtime/errors"
)

const (
	defaultRestartInitialBackoff = time.Second
	defaultRestartMaxBackoff     = 16 * time.Second
)

// Supervisor runs process specs and restarts them according to their restart
// policy. Error exits back off exponentially; a clean exit resets the
// backoff.
type Supervisor struct {
	logger         watermill.LoggerAdapter
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu      sync.Mutex
	specs   []ProcessSpec
	running bool
}

// SupervisorOption customises a Supervisor.
type SupervisorOption func(*Supervisor)

// WithRestartBackoff sets the initial and maximum restart delay.
func WithRestartBackoff(initial, max time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if max > 0 {
			s.maxBackoff = max
		}
	}
}

// NewSupervisor returns a Supervisor logging through the given adapter. A nil
// logger silences supervision logging.
func NewSupervisor(logger watermill.LoggerAdapter, opts ...SupervisorOption) *Supervisor {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	s := &Supervisor{
		logger:         logger,
		initialBackoff: defaultRestartInitialBackoff,
		maxBackoff:     defaultRestartMaxBackoff,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Add registers a process spec. Specs must be added before Run is called.
func (s *Supervisor) Add(spec ProcessSpec) error {
	if spec.Run == nil {
		return gzerrors.ErrRunRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("gazet: supervisor already running, cannot add %q", spec.ID)
	}
	if spec.ID == "" {
		spec.ID = fmt.Sprintf("child-%d", len(s.specs)+1)
	}
	s.specs = append(s.specs, spec)
	return nil
}

// Run starts every registered spec and blocks until ctx is cancelled or all
// children have stopped. It always waits for children to finish before
// returning.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("gazet: supervisor already running")
	}
	s.running = true
	specs := make([]ProcessSpec, len(s.specs))
	copy(specs, s.specs)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var wg sync.WaitGroup
	for _, spec := range specs {
		wg.Add(1)
		go func(spec ProcessSpec) {
			defer wg.Done()
			s.supervise(ctx, spec)
		}(spec)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done
	case <-done:
	}
	return nil
}

// supervise runs one spec in a restart loop until its policy or ctx stops it.
func (s *Supervisor) supervise(ctx context.Context, spec ProcessSpec) {
	backoff := s.initialBackoff
	fields := watermill.LogFields{"child_id": spec.ID, "restart": spec.Restart.String()}

	for {
		s.logger.Debug("Starting supervised child", fields)
		err := spec.Run(ctx)

		if ctx.Err() != nil {
			s.logger.Debug("Supervised child stopped on shutdown", fields)
			return
		}

		if err != nil {
			if spec.Restart == RestartTemporary {
				s.logger.Error("Supervised child failed, not restarting", err, fields)
				return
			}
			s.logger.Error("Supervised child failed, restarting", err, fields.Add(watermill.LogFields{"backoff": backoff.String()}))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff *= 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
			continue
		}

		if spec.Restart != RestartPermanent {
			s.logger.Debug("Supervised child finished", fields)
			return
		}
		s.logger.Debug("Supervised child finished, restarting", fields)
		if !sleepCtx(ctx, s.initialBackoff) {
			return
		}
		backoff = s.initialBackoff
	}
}

// sleepCtx waits for d unless ctx ends first. It reports whether the full
// delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
