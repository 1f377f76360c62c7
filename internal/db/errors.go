package db

import "errors"

var (
	// ErrKeyNotFound is returned by Get for a missing or expired key.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrNoAddrs is returned when a store is configured without addresses.
	ErrNoAddrs = errors.New("db: no addresses configured")
)

// Op names the store command that failed.
const (
	OpPing = "PING"
	OpGet  = "GET"
	OpSet  = "SET"
)

// Error carries the failed command and key. Key is empty for PING.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
