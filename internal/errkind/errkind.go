// Package errkind classifies scraper failures so callers can tell a network
// problem from a page that changed shape or a file that could not be written.
package errkind

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers request and navigation failures, timeouts and non-success statuses
	ErrNetwork = errors.New("network error")
	// ErrParse covers pages missing the structure the extractors expect
	ErrParse = errors.New("parse error")
	// ErrIO covers filesystem failures and undecodable output files
	ErrIO = errors.New("io error")
)

// Wrap tags err with kind and a short description of what was being done.
// Both kind and err remain reachable through errors.Is / errors.As.
func Wrap(kind error, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), err)
}

// Kind returns which of the known kinds err belongs to, or nil
func Kind(err error) error {
	for _, kind := range []error{ErrNetwork, ErrParse, ErrIO} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
