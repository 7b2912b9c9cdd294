package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure without revealing which
	// half of the credential pair was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated indicates the account exists but is no longer active.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidUsername indicates the username fails PRECIS normalization.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrWeakPassword indicates the password fails the configured policy.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrInvalidToken indicates a session token that failed signature, class
	// or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlreadyVerified indicates the email address was verified earlier.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrTokenNotFound indicates no ephemeral token matches the secret.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenAlreadyUsed indicates the ephemeral token was consumed before.
	ErrTokenAlreadyUsed = errors.New("token already used")
	// ErrTokenExpired indicates the ephemeral token is past its deadline.
	ErrTokenExpired = errors.New("token expired")
)
