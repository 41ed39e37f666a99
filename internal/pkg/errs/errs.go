package errs

import (
	cr "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cr.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Mark attaches markErr as a recognizable reference without changing the
// message. Marks are only visible to Is below, not to stdlib errors.Is.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Is matches wrapped errors and marks alike; use it wherever the error may
// have passed through Mark.
func Is(err error, reference error) bool {
	return cr.Is(err, reference)
}
