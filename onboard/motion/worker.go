package motion

import (
	"fmt"
	"time"

	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/errors"
)

// run is the worker loop. A pending stop always wins over queued commands.
func (s *Scheduler) run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.lock.Lock()
		if s.stopRequested {
			s.queue = s.queue[:0]
			s.lock.Unlock()

			s.halt()

			s.lock.Lock()
			s.stopRequested = false
			s.busy = false
			s.lock.Unlock()

			if !s.pause(StopSettle) {
				return
			}
			continue
		}

		if len(s.queue) == 0 {
			s.busy = false
			s.lock.Unlock()

			if !s.idle() {
				return
			}
			continue
		}

		cmd := s.queue[0]
		s.queue = s.queue[1:]
		s.busy = true
		s.preempted = false
		s.last = &Last{
			ID:        cmd.ID,
			Cmd:       cmd.Kind,
			Steps:     cmd.Steps,
			Hold:      cmd.Hold,
			StartedAt: time.Now(),
		}
		s.lock.Unlock()

		s.execute(cmd)
	}
}

// halt aborts whatever is moving and removes drive from every joint.
func (s *Scheduler) halt() {
	a, err := s.source.Actuator()
	if err != nil {
		return
	}

	a.RequestAbort()
	if err = safely(a.DeenergizeAll); err != nil {
		s.fail(errors.RuntimeError{Cmd: "stop", Err: err})
	}
	a.ClearAbort()
	s.log.Info("stopped")
}

func (s *Scheduler) execute(cmd Command) {
	a, err := s.source.Actuator()
	if err != nil {
		s.log.Warn("actuator unavailable, dropping command", "cmd", cmd.Kind, "err", err)
		s.pause(UnavailableBackoff)
		return
	}

	exec := Execution{Command: cmd, StartedAt: time.Now()}
	a.ClearAbort()

	err = safely(func() error {
		return s.perform(a, cmd, &exec)
	})
	if err != nil {
		rerr := errors.RuntimeError{Cmd: string(cmd.Kind), Err: err}
		s.fail(rerr)
		exec.Error = rerr.Error()

		// best effort, the actuator may be the thing that is broken
		safely(a.DeenergizeAll)
	}

	exec.FinishedAt = time.Now()
	s.finish(exec)
}

func (s *Scheduler) perform(a onboard.Actuator, cmd Command, exec *Execution) error {
	switch {
	case cmd.Kind == KindCenter:
		return a.Center()

	case cmd.Kind == KindAllOff:
		return a.DeenergizeAll()

	case cmd.Kind == KindStop:
		a.RequestAbort()
		err := a.Stop()
		a.ClearAbort()
		return err

	case cmd.Kind.IsVerb():
		verb := onboard.Verb(cmd.Kind)
		for i := 0; i < cmd.Steps; i++ {
			if a.ShouldAbort() || s.interrupted() {
				exec.Aborted = true
				break
			}
			if err := a.Command(verb); err != nil {
				return err
			}
			exec.StepsDone++
		}
		if !cmd.Hold {
			return a.DeenergizeAll()
		}
		return nil

	default:
		s.log.Warn("ignoring unknown command", "cmd", cmd.Kind)
		return nil
	}
}

// interrupted backs up the abort flag, which the worker clears after
// dequeueing and so may wipe a request that raced with it.
func (s *Scheduler) interrupted() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stopRequested || s.preempted
}

func (s *Scheduler) fail(err error) {
	s.log.Error("actuator failure", "err", err)

	s.lock.Lock()
	s.lastErr = err
	s.lock.Unlock()
}

func (s *Scheduler) finish(exec Execution) {
	if s.Recorder != nil {
		if err := s.Recorder.Record(exec); err != nil {
			s.log.Warn("unable to record execution", "cmd", exec.Command.Kind, "err", err)
		}
	}
	if s.Reclaim != nil {
		s.Reclaim()
	}
}

// idle waits for new work, at most IdlePoll. false means the scheduler closed.
func (s *Scheduler) idle() bool {
	timer := time.NewTimer(IdlePoll)
	defer timer.Stop()

	select {
	case <-s.wake:
		return true
	case <-timer.C:
		return true
	case <-s.done:
		return false
	}
}

func (s *Scheduler) pause(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.done:
		return false
	}
}

// safely turns a panic inside the actuator into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
