package serial

import "errors"

var ErrNotStarted = errors.New("serial port not open")
