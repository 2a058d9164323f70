package providers

import (
	"errors"
	"fmt"

	"mentichat/internal/models"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	KindMissingCredential ErrorKind = iota + 1
	KindNetwork
	KindUnexpectedShape
	KindProviderFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing credential"
	case KindNetwork:
		return "network"
	case KindUnexpectedShape:
		return "unexpected shape"
	case KindProviderFailure:
		return "provider failure"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels usable with errors.Is against any *ClientError of the same kind.
var (
	ErrMissingCredential = &ClientError{Kind: KindMissingCredential}
	ErrNetwork           = &ClientError{Kind: KindNetwork}
	ErrUnexpectedShape   = &ClientError{Kind: KindUnexpectedShape}
	ErrProviderFailure   = &ClientError{Kind: KindProviderFailure}
)

// ClientError is the only error type a Client returns.
type ClientError struct {
	Kind     ErrorKind
	Provider models.ProviderKind
	Detail   string
	Err      error
}

func (e *ClientError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ClientError) Unwrap() error { return e.Err }

// Is matches on Kind so that errors.Is(err, ErrNetwork) works.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a ClientError, taking Detail from err when detail is empty.
func NewError(kind ErrorKind, provider models.ProviderKind, detail string, err error) *ClientError {
	if detail == "" && err != nil {
		detail = err.Error()
	}
	return &ClientError{Kind: kind, Provider: provider, Detail: detail, Err: err}
}

// AsClientError converts any error into a *ClientError. Foreign errors are
// classified as provider failures.
func AsClientError(err error, provider models.ProviderKind) *ClientError {
	if err == nil {
		return nil
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(KindProviderFailure, provider, "", err)
}
