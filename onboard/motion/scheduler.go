// Package motion queues motion commands from any number of callers and plays
// them one at a time on the shared actuator.
package motion

import (
	goerrors "errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/errors"
)

const (
	StopSettle         = 20 * time.Millisecond
	IdlePoll           = 30 * time.Millisecond
	UnavailableBackoff = 200 * time.Millisecond
)

// Status is a consistent view of the scheduler at one instant.
type Status struct {
	QueueLen      int    `json:"queueLen"`
	Busy          bool   `json:"busy"`
	StopRequested bool   `json:"stopRequested"`
	Last          *Last  `json:"last"`
	Error         string `json:"error"`
}

// Scheduler owns the command queue and its single worker. The worker is
// started by the first call into the scheduler.
//
// lock guards queue, busy, last, stopRequested, preempted and lastErr. It is
// never held while the actuator is being driven.
type Scheduler struct {
	source onboard.ActuatorSource

	Recorder Recorder // optional, receives every executed command
	Reclaim  func()   // run after each command, runtime.GC by default

	lock          sync.Mutex
	queue         []Command
	busy          bool
	stopRequested bool
	preempted     bool // the command in hand must give way to a center or all_off
	last          *Last
	lastErr       error

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	log *slog.Logger
}

func NewScheduler(source onboard.ActuatorSource) *Scheduler {
	return &Scheduler{
		source:  source,
		Reclaim: runtime.GC,
		queue:   make([]Command, 0, QueueCapacity),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		log:     log.With("component", "motion"),
	}
}

// Enqueue appends a movement verb. steps and hold arrive as decoded from the
// wire and are coerced with ClampSteps and CoerceHold.
func (s *Scheduler) Enqueue(verb onboard.Verb, steps, hold interface{}) (Command, error) {
	if !onboard.IsVerb(string(verb)) {
		return Command{}, errors.ValidationError{Cmd: string(verb)}
	}
	return s.push(newCommand(Kind(verb), ClampSteps(steps), CoerceHold(hold)))
}

// EnqueueKind appends any known kind, including a queued stop, behind
// whatever is already waiting.
func (s *Scheduler) EnqueueKind(kind Kind, steps int, hold bool) (Command, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Command{}, err
	}
	return s.push(newCommand(kind, steps, hold))
}

func (s *Scheduler) push(cmd Command) (Command, error) {
	s.start()

	s.lock.Lock()
	if len(s.queue) >= QueueCapacity {
		s.lock.Unlock()
		return Command{}, errors.CapacityError{Capacity: QueueCapacity}
	}
	s.queue = append(s.queue, cmd)
	s.lock.Unlock()

	s.signal()
	return cmd, nil
}

// RequestStop is the immediate stop: the queue is emptied, the running
// command is aborted at its next step and the worker de-energizes everything.
// It is idempotent.
func (s *Scheduler) RequestStop() {
	s.start()

	s.lock.Lock()
	s.stopRequested = true
	s.queue = s.queue[:0]
	s.lock.Unlock()
	s.signal()

	if a, err := s.source.Actuator(); err == nil {
		a.RequestAbort()
	}
}

// Preempt replaces whatever is queued or pending with a single center or
// all_off command, aborting the running command first.
func (s *Scheduler) Preempt(kind Kind) (Command, error) {
	if kind != KindCenter && kind != KindAllOff {
		return Command{}, errors.ValidationError{Cmd: string(kind)}
	}
	s.start()

	if a, err := s.source.Actuator(); err == nil {
		a.RequestAbort()
	}

	cmd := newCommand(kind, MinSteps, true)

	s.lock.Lock()
	s.queue = append(s.queue[:0], cmd)
	s.stopRequested = false
	s.preempted = true
	s.lock.Unlock()

	s.signal()
	return cmd, nil
}

func (s *Scheduler) Status() (status Status) {
	s.start()

	s.lock.Lock()
	status.QueueLen = len(s.queue)
	status.Busy = s.busy
	status.StopRequested = s.stopRequested
	if s.last != nil {
		last := *s.last
		status.Last = &last
	}
	lastErr := s.lastErr
	s.lock.Unlock()

	if _, err := s.source.Actuator(); err != nil {
		status.Error = reason(err)
	} else if lastErr != nil {
		status.Error = lastErr.Error()
	}
	return
}

// Queued returns a copy of the waiting commands, head first.
func (s *Scheduler) Queued() []Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Command(nil), s.queue...)
}

// Close stops the worker after the command in hand and waits for it to exit.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	// a scheduler that never started has no worker to wait for
	s.startOnce.Do(func() {
		close(s.stopped)
	})
	<-s.stopped
}

// reason strips the wrapper from an unavailable actuator error.
func reason(err error) string {
	var unavailable errors.UnavailableError
	if goerrors.As(err, &unavailable) && unavailable.Reason != "" {
		return unavailable.Reason
	}
	return err.Error()
}

func (s *Scheduler) start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// signal wakes an idle worker without ever blocking the caller.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
