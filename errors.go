package ayurcare

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateIdentity  = "duplicate_identity"
	TextCodeIdentityNotFound   = "identity_not_found"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeNoUsableCredential = "no_usable_credential"
	TextCodeCorruptCredential  = "corrupt_credential"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenInvalid       = "token_invalid"
	TextCodeRefreshRejected    = "refresh_rejected"
	TextCodeRoleForbidden      = "role_forbidden"
	TextCodeInvalidRole        = "invalid_role"
)

// ErrDuplicateIdentity is returned when the email or license number is
// already registered. Email uniqueness is case-insensitive.
var ErrDuplicateIdentity = errors.New("an account with this identity already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword covers both unknown accounts and wrong
// secrets so login failures are indistinguishable to the caller.
var ErrMismatchedHashAndPassword = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoUsableCredential is returned when the account exists but carries no
// password hash (e.g. created by a doctor, never claimed).
var ErrNoUsableCredential = errors.New("this account is not set up for password login", errors.CategoryAuth).
	WithTextCode(TextCodeNoUsableCredential).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty secrets before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrCorruptCredential signals a malformed stored hash. Administrative,
// never user-correctable; surfaced as a generic internal error.
var ErrCorruptCredential = errors.New("stored credential is corrupt", errors.CategoryInternal).
	WithTextCode(TextCodeCorruptCredential).
	WithCode(errors.CodeInternal)

// ErrTokenExpired means the session is no longer usable; re-login required
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers bad signatures and malformed payloads
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshRejected is returned when a refresh token verifies but no
// longer matches the account's stored reference (logout or newer login).
var ErrRefreshRejected = errors.New("refresh token no longer valid", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshRejected).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession no session in the request context
var ErrUnableToFindSession = errors.New("unable to find session in context", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession session value has an unexpected type
var ErrUnableToDecodeSession = errors.New("unable to decode session claims", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse claims data", errors.CategoryInternal).
	WithCode(errors.CodeInternal)

// NewValidationError builds a client-correctable input error naming the
// offending field class.
func NewValidationError(msg string, fields map[string]any) *errors.Error {
	return errors.New(msg, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(fields)
}

// NewForbiddenError names the offending role and the allowed set.
func NewForbiddenError(role Role, allowed []Role) *errors.Error {
	msg := fmt.Sprintf(
		"role '%s' is not authorized to access this route, required roles: %s",
		role, strings.Join(allowed, ", "),
	)
	return errors.New(msg, errors.CategoryAuthz).
		WithTextCode(TextCodeRoleForbidden).
		WithCode(errors.CodeForbidden).
		WithMetadata(map[string]any{
			"role":          role,
			"allowed_roles": allowed,
		})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsTokenInvalidError will check for malformed or tampered tokens
func IsTokenInvalidError(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

// IsDuplicateIdentityError will check for identity uniqueness violations
func IsDuplicateIdentityError(err error) bool {
	return hasTextCode(err, TextCodeDuplicateIdentity)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
