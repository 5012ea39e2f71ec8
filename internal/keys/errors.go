package keys

import "errors"

var (
	// ErrNotFoundOrUnauthorized covers both a missing key and a key owned by
	// someone else. The two cases are deliberately indistinguishable so that
	// callers cannot discover whether other users' keys exist.
	ErrNotFoundOrUnauthorized = errors.New("API key not found or unauthorized")

	// ErrEmptyName rejects key creation before any I/O happens.
	ErrEmptyName = errors.New("key name is required")
)
