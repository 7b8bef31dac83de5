package acomm

import "errors"

var ErrNoStore = errors.New("no parameter store configured")
