// Package platform holds the errors shared by the model backends.
package platform

import "errors"

var (
	// ErrMissingAPIKey is returned when a backend needs a credential that was not configured.
	ErrMissingAPIKey = errors.New("API key is missing")
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("received empty response from AI")
)
