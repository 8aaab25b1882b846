package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation         = "VALIDATION_ERROR"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeIdentityConflict   = "IDENTITY_CONFLICT"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeUnresolvableSubj   = "UNRESOLVABLE_SUBJECT"
	TextCodeRoleNotOwned       = "ROLE_NOT_OWNED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeMissingSigningKey  = "MISSING_SIGNING_KEY"
	TextCodeMissingDefaultRole = "MISSING_DEFAULT_ROLE"
	TextCodeInvalidConfig      = "INVALID_CONFIG"
)

// ErrValidation is returned for malformed or missing request fields.
var ErrValidation = goerrors.New("the request is not valid", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is returned for an unknown username and for a wrong
// password alike.
var ErrInvalidCredentials = goerrors.New("invalid username or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityConflict is returned when the username or email is already in use
var ErrIdentityConflict = goerrors.New("username or email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeIdentityConflict).
	WithCode(goerrors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnresolvableSubject is returned when the token subject is missing,
// not an integer, or no longer maps to an identity.
var ErrUnresolvableSubject = goerrors.New("user id missing or invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnresolvableSubj).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleNotOwned is returned when the selected role is not assigned to the caller.
var ErrRoleNotOwned = goerrors.New("selected role is not assigned to the user", goerrors.CategoryBadInput).
	WithTextCode(TextCodeRoleNotOwned).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned by the validator for tokens past their exp claim
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, wrong issuer/audience and garbage input
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString password must not be empty
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingSigningKey is a fatal configuration error.
var ErrMissingSigningKey = goerrors.New("token signing key is not configured", goerrors.CategoryInternal).
	WithTextCode(TextCodeMissingSigningKey).
	WithCode(goerrors.CodeInternal)

// ErrMissingDefaultRole means the role catalog was never seeded.
var ErrMissingDefaultRole = goerrors.New("default role not found in role catalog", goerrors.CategoryInternal).
	WithTextCode(TextCodeMissingDefaultRole).
	WithCode(goerrors.CodeInternal)

// ErrInvalidConfig is returned for any other unusable configuration value
var ErrInvalidConfig = goerrors.New("invalid auth configuration", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(goerrors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsNotFound reports whether err carries the not found category.
func IsNotFound(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryNotFound
	}
	return false
}

// HasTextCode reports whether err is a rich error with the given text code.
func HasTextCode(err error, code string) bool {
	return hasTextCode(err, code)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
