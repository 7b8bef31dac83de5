package param

import "errors"

var (
	ErrCapacity          = errors.New("parameter table capacity exceeded")
	ErrNilStorage        = errors.New("nil parameter storage")
	ErrUnknownParam      = errors.New("unknown parameter id")
	ErrNotRegistered     = errors.New("parameter not registered")
	ErrAlreadyRegistered = errors.New("parameter already registered")
	ErrInvalidType       = errors.New("invalid parameter type")
	ErrInvalidLimits     = errors.New("invalid parameter limits (min > max)")
	ErrOutOfRange        = errors.New("value outside parameter limits")
	ErrTypeMismatch      = errors.New("value type does not match parameter type")

	ErrUnknownTask    = errors.New("unknown task id")
	ErrTaskRegistered = errors.New("task already registered")
	ErrTaskComplete   = errors.New("task registration already complete")
	ErrTaskTableFull  = errors.New("task table full")
)
