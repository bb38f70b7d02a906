package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrKeyExists   = errors.New("db: key already exists")
)

// Op constants map to Redis/Valkey command names for error context.
const (
	OpDel     = "DEL"
	OpScan    = "SCAN"
	OpGet     = "GET"
	OpSetNX   = "SET NX"
	OpJSONSet = "JSON.SET"
	OpJSONGet = "JSON.GET"
)

// Error wraps a driver error with the command and, when known, the key.
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
