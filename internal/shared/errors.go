package shared

import "errors"

// Sentinels shared across modules. Domain repositories with their own
// not-found semantics (leads, quotations, partners, commissions, users)
// declare package-local sentinels instead of reusing these.
var (
	// ErrNotFound reports a missing account or session record.
	ErrNotFound = errors.New("shared: record not found")
	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated accounts alike, so login failures stay indistinguishable.
	ErrInvalidCredentials = errors.New("shared: invalid credentials")
	// ErrCSRFTokenMissing reports a mutating request without a token.
	ErrCSRFTokenMissing = errors.New("shared: csrf token missing")
	// ErrCSRFTokenMismatch reports a token that fails the session comparison.
	ErrCSRFTokenMismatch = errors.New("shared: csrf token mismatch")
)
