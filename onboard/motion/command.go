package motion

import (
	"time"

	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/google/uuid"
)

const (
	QueueCapacity = 24
	MinSteps      = 1
	MaxSteps      = 20
)

// Kind is either one of the movement verbs or a housekeeping command.
type Kind string

const (
	KindCenter Kind = "center"
	KindAllOff Kind = "all_off"
	KindStop   Kind = "stop"
)

func (k Kind) IsVerb() bool {
	return onboard.IsVerb(string(k))
}

// ParseKind accepts the verbs plus center, all_off and stop.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	switch {
	case k.IsVerb(), k == KindCenter, k == KindAllOff, k == KindStop:
		return k, nil
	default:
		return "", errors.ValidationError{Cmd: name}
	}
}

// Command is a queued unit of work. It is never modified once queued.
type Command struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"cmd"`
	Steps      int       `json:"steps"`
	Hold       bool      `json:"hold"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func newCommand(kind Kind, steps int, hold bool) Command {
	return Command{
		ID:         uuid.New(),
		Kind:       kind,
		Steps:      clamp(steps),
		Hold:       hold,
		EnqueuedAt: time.Now(),
	}
}

// ClampSteps turns a step count from the wire into [MinSteps, MaxSteps].
// Anything that is not a number, numeric string or boolean counts as one step.
func ClampSteps(v interface{}) int {
	n, ok := onboard.AsInt(v)
	if !ok {
		return MinSteps
	}
	return clamp(n)
}

func clamp(n int) int {
	if n < MinSteps {
		return MinSteps
	}
	if n > MaxSteps {
		return MaxSteps
	}
	return n
}

// CoerceHold is true only for a literal boolean true.
func CoerceHold(v interface{}) bool {
	hold, ok := v.(bool)
	return ok && hold
}

// Last describes the most recently dequeued command.
type Last struct {
	ID        uuid.UUID `json:"id"`
	Cmd       Kind      `json:"cmd"`
	Steps     int       `json:"steps"`
	Hold      bool      `json:"hold"`
	StartedAt time.Time `json:"startedAt"`
}

// Execution is the outcome of one command, handed to the Recorder.
type Execution struct {
	Command    Command   `json:"command"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	StepsDone  int       `json:"stepsDone"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`
}

type Recorder interface {
	Record(exec Execution) error
}
