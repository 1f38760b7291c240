package mediawiki

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch       = errors.New("mediawiki: empty title batch")
	ErrBatchTooLarge    = errors.New("mediawiki: title batch exceeds limit")
	ErrUnexpectedStatus = errors.New("mediawiki: unexpected HTTP status")
	ErrAPI              = errors.New("mediawiki: api error")
)

// APIError is the error object MediaWiki embeds in a 200 response.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

func (e *APIError) Unwrap() error {
	return ErrAPI
}
