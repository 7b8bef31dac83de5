package storage

import "errors"

var (
	ErrCorruptRecord = errors.New("corrupt parameter record")
	ErrClosed        = errors.New("store closed")
)
