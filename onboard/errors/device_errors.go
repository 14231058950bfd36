package errors

import "fmt"

// ValidationError is returned for a command name the crawler does not know.
type ValidationError struct {
	Cmd string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid cmd %q", err.Cmd)
}

// CapacityError is returned when the motion queue is full. Nothing already
// queued is touched, callers may retry later.
type CapacityError struct {
	Capacity int
}

func (err CapacityError) Error() string {
	return fmt.Sprintf("queue full; capacity %d reached", err.Capacity)
}

// UnavailableError carries the cached reason the actuator could not be
// brought up.
type UnavailableError struct {
	Reason string
}

func (err UnavailableError) Error() string {
	if len(err.Reason) == 0 {
		err.Reason = "UNKNOWN"
	}

	return fmt.Sprintf("actuator unavailable: %s", err.Reason)
}

// RuntimeError wraps a failure raised by the actuator while executing a command.
type RuntimeError struct {
	Cmd string
	Err error
}

func (err RuntimeError) Error() string {
	return fmt.Sprintf("actuator failed during %s: %v", err.Cmd, err.Err)
}

func (err RuntimeError) Unwrap() error {
	return err.Err
}

// FieldError describes a single malformed joint configuration value.
type FieldError struct {
	Joint string
	Field string
	Value interface{}
}

func (err FieldError) Error() string {
	return fmt.Sprintf("joint %s has unusable %s %v", err.Joint, err.Field, err.Value)
}

// ChannelError is returned when a servo channel outside the driver's range is addressed.
type ChannelError struct {
	Channel int
	Max     int
}

func (err ChannelError) Error() string {
	return fmt.Sprintf("channel %d out of range 0-%d", err.Channel, err.Max)
}

// ConfigVersionError is returned when a config file declares a schema version
// this build cannot work with.
type ConfigVersionError struct {
	Version    string
	Constraint string
}

func (err ConfigVersionError) Error() string {
	return fmt.Sprintf("unable to use config version %s - require %s", err.Version, err.Constraint)
}
