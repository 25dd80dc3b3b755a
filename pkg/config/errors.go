package config

import "errors"

// ErrConfig is the sentinel every configuration error wraps.
var ErrConfig = errors.New("configuration error")

// Error reports an invalid configuration. Var names the offending
// environment variable.
type Error struct {
	Provider Provider
	Var      string
	Msg      string
}

func (e *Error) Error() string {
	return "config: " + e.Msg
}

func (e *Error) Unwrap() error {
	return ErrConfig
}
