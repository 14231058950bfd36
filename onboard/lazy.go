package onboard

import (
	"fmt"
	"sync"

	"github.com/CodedInternet/gocrawler/onboard/errors"
)

// ActuatorSource hands out the shared actuator, or the reason there is none.
type ActuatorSource interface {
	Actuator() (Actuator, error)
}

type ActuatorFactory func() (Actuator, error)

// LazyActuator builds the actuator on first use. The outcome, success or
// failure, is kept for the life of the process.
type LazyActuator struct {
	factory ActuatorFactory

	once     sync.Once
	actuator Actuator
	err      error
}

func NewLazyActuator(factory ActuatorFactory) *LazyActuator {
	return &LazyActuator{factory: factory}
}

// Actuator is safe for concurrent use; the factory runs at most once.
func (l *LazyActuator) Actuator() (Actuator, error) {
	l.once.Do(l.build)
	return l.actuator, l.err
}

func (l *LazyActuator) build() {
	defer func() {
		if r := recover(); r != nil {
			l.actuator = nil
			l.err = errors.UnavailableError{Reason: fmt.Sprint(r)}
		}
	}()

	a, err := l.factory()
	switch {
	case err != nil:
		l.err = errors.UnavailableError{Reason: err.Error()}
	case a == nil:
		l.err = errors.UnavailableError{Reason: "factory returned no actuator"}
	default:
		l.actuator = a
	}
}

// StaticActuator is a source for an actuator that already exists.
type StaticActuator struct {
	A Actuator
}

func (s StaticActuator) Actuator() (Actuator, error) {
	return s.A, nil
}
