package db

import "errors"

// ErrKeyNotFound is returned by Get for a missing or expired key.
var ErrKeyNotFound = errors.New("db: key not found")

// Command names recorded in Error.Op.
const (
	OpGet  = "GET"
	OpSet  = "SET"
	OpDel  = "DEL"
	OpPing = "PING"
)

// Error reports which store command failed.
type Error struct {
	Op  string
	Key string // empty for PING
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return "db " + e.Op + ": " + e.Err.Error()
	}
	return "db " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
