package vimeo

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAccessToken indicates no Vimeo access token is configured.
	ErrMissingAccessToken = errors.New("vimeo access token not configured")
	// ErrForeignPagingHost indicates a paging pointer left the configured API host.
	ErrForeignPagingHost = errors.New("vimeo paging pointer targets a foreign host")
)

// ConfigError reports a configuration problem detected before any request is sent.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vimeo configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// APIError is a structured error reported by the Vimeo API.
type APIError struct {
	Message          string
	DeveloperMessage string
	Code             int
	Status           int
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.DeveloperMessage != "" && e.DeveloperMessage != e.Message {
		if msg == "" {
			msg = e.DeveloperMessage
		} else {
			msg = msg + " (" + e.DeveloperMessage + ")"
		}
	}
	if e.Code != 0 {
		return fmt.Sprintf("vimeo api error %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("vimeo api error: %s", msg)
}
