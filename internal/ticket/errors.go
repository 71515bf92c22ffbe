package ticket

import (
	"errors"
	"fmt"
)

// Base errors shared by all ticket providers. Providers wrap these with
// provider-specific context so callers can match with errors.Is.
var (
	ErrNoToken          = errors.New("api token not found")
	ErrUnauthorized     = errors.New("token unauthorized or expired")
	ErrNotFound         = errors.New("ticket not found")
	ErrInvalidReference = errors.New("invalid ticket reference")
)

// ProviderError attaches a provider name to an underlying error.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func wrapProvider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

func invalidRef(provider, ref string) error {
	return wrapProvider(provider, fmt.Errorf("%w: %s", ErrInvalidReference, ref))
}
