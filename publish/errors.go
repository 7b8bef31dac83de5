package publish

import "errors"

var ErrTimeout = errors.New("mqtt operation timed out")
