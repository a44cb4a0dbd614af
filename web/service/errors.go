package service

import "errors"

var (
	// ErrDuplicateUsername is returned by Register when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned by CheckUser on a digest mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrFederation is returned when the OAuth token exchange or the
	// profile fetch fails; it marks the failure as provider-side.
	ErrFederation = errors.New("federation failed")
)
