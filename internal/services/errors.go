package services

import "errors"

var (
	// ErrOwnerRequired is returned when an operation needs a caller identity and has none.
	ErrOwnerRequired = errors.New("user ID is required")
	// ErrEmptyCart is returned when an order is created without products.
	ErrEmptyCart = errors.New("at least one cart product is required")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("permission denied")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a malformed, expired, forged or revoked token.
	ErrInvalidToken = errors.New("invalid token")
)
