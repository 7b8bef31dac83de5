package stub

import "errors"

var ErrNotStarted = errors.New("stub driver not started")
