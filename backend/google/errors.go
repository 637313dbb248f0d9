package google

import (
	"errors"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/cadence"
)

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// wrapError categorizes a GenAI error and tags it with this adapter's
// provider. GenAI errors expose a status code but no headers, so Retry-After
// is not available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return &ai.ModelAdapterError{Provider: ai.ProviderGoogle, Err: categorize(err)}
}

func categorize(err error) error {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return ai.NewPermanentError(err.Error(), 0, err)
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error; network errors are handled by retry heuristics.
		return err
	}

	code := apiErr.Code
	msg := err.Error()

	switch categorizeStatusCode(code) {
	case ai.ErrorTransient:
		return ai.NewTransientError(msg, code, err)
	case ai.ErrorPermanent:
		return ai.NewPermanentError(msg, code, err)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, err)
	default:
		return err
	}
}

// categorizeStatusCode determines the error category from an HTTP status code.
func categorizeStatusCode(code int) ai.ErrorCategory {
	switch {
	case code == 429:
		return ai.ErrorTransient // Rate limited
	case code >= 500 && code < 600:
		return ai.ErrorTransient // Server error
	case code == 401 || code == 403:
		return ai.ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 422:
		return ai.ErrorUserInput // Bad request or not found
	default:
		return ai.ErrorPermanent // Default to permanent for unknown codes
	}
}
