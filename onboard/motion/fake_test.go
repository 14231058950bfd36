package motion

import (
	goerrors "errors"
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/errors"
)

// scriptedActuator records every call and can be told to block, fail or
// panic on a given call.
type scriptedActuator struct {
	onboard.AbortFlag

	StepDelay time.Duration
	Gate      chan struct{} // when set, Command waits for a value or close
	ClearGate chan struct{} // when set, ClearAbort waits for a value or close
	FailOn    string
	PanicOn   string

	lock      sync.Mutex
	calls     []string
	aborts    int
	energized bool
}

func newScripted(stepDelay time.Duration) *scriptedActuator {
	return &scriptedActuator{StepDelay: stepDelay}
}

func (a *scriptedActuator) RequestAbort() {
	a.lock.Lock()
	a.aborts++
	a.lock.Unlock()
	a.AbortFlag.RequestAbort()
}

func (a *scriptedActuator) ClearAbort() {
	if a.ClearGate != nil {
		<-a.ClearGate
	}
	a.AbortFlag.ClearAbort()
}

func (a *scriptedActuator) call(name string, energized bool) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.calls = append(a.calls, name)
	if name == a.PanicOn {
		panic("servo driver crashed")
	}
	if name == a.FailOn {
		return goerrors.New("i2c nack")
	}
	a.energized = energized
	return nil
}

func (a *scriptedActuator) Command(verb onboard.Verb) error {
	if a.Gate != nil {
		<-a.Gate
	}
	time.Sleep(a.StepDelay)
	return a.call(string(verb), true)
}

func (a *scriptedActuator) Center() error {
	return a.call("center", false)
}

func (a *scriptedActuator) Stop() error {
	return a.call("stop", true)
}

func (a *scriptedActuator) DeenergizeAll() error {
	return a.call("off", false)
}

func (a *scriptedActuator) Joints() []onboard.JointConfig {
	return nil
}

func (a *scriptedActuator) PulseRange() onboard.PulseRange {
	return onboard.PulseRange{MinPulse: 500, MaxPulse: 2500}
}

func (a *scriptedActuator) Calls() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *scriptedActuator) Count(name string) (n int) {
	for _, c := range a.Calls() {
		if c == name {
			n++
		}
	}
	return
}

func (a *scriptedActuator) Aborts() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.aborts
}

func (a *scriptedActuator) Energized() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.energized
}

type unavailableSource struct{}

func (unavailableSource) Actuator() (onboard.Actuator, error) {
	return nil, errors.UnavailableError{Reason: "no pca9685 at 0x40"}
}

type memoryRecorder struct {
	lock  sync.Mutex
	execs []Execution
}

func (r *memoryRecorder) Record(exec Execution) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.execs = append(r.execs, exec)
	return nil
}

func (r *memoryRecorder) Executions() []Execution {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Execution(nil), r.execs...)
}

// eventually polls cond until it holds or timeout passes.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func newTestScheduler(a onboard.Actuator) *Scheduler {
	s := NewScheduler(onboard.StaticActuator{A: a})
	s.Reclaim = nil
	return s
}
