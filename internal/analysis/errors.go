package analysis

import (
	"context"
	"errors"
	"fmt"

	"chefai/internal/platform"
)

// Kind classifies why an analysis failed.
type Kind int

const (
	// KindService covers transport failures and empty or unusable replies.
	KindService Kind = iota
	// KindConfig means the server is missing configuration, usually the API key.
	KindConfig
	// KindTimeout means the model did not answer before the deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTimeout:
		return "timeout"
	default:
		return "service"
	}
}

const (
	configMessage  = "API key is missing. Please ensure the environment is configured correctly."
	timeoutMessage = "The analysis took too long. Please try again."
	serviceMessage = "The AI service could not complete the analysis. Please try again."
)

// Error is a failed analysis with a message safe to show to the user.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text shown in the error banner.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindConfig:
		return configMessage
	case KindTimeout:
		return timeoutMessage
	default:
		return serviceMessage
	}
}

func classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, platform.ErrMissingAPIKey):
		return &Error{Kind: KindConfig, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	default:
		return &Error{Kind: KindService, Err: err}
	}
}
