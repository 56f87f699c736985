package accounts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// ErrInvalidToken is returned for unknown and for logged out session
// keys. The two cases are deliberately indistinguishable.
var ErrInvalidToken = errors.New("Invalid token.", errors.CategoryAuth).
	WithTextCode("INVALID_TOKEN").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when the sliding window has elapsed.
var ErrTokenExpired = errors.New("Token has expired.", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrUserInactive rejects credentials that resolve to a deactivated
// account.
var ErrUserInactive = errors.New("User inactive or deleted.", errors.CategoryAuthz).
	WithTextCode("USER_INACTIVE").
	WithCode(errors.CodeForbidden)

// ErrNoSuchUser is the login failure for an unknown email. The message
// leaks account existence; callers wanting a uniform response can map
// it onto ErrBadCredentials.
var ErrNoSuchUser = errors.New("User with this email does not exist.", errors.CategoryAuthz).
	WithTextCode("NO_SUCH_USER").
	WithCode(errors.CodeForbidden)

// ErrBadCredentials is the login failure for a wrong password.
var ErrBadCredentials = errors.New("Incorrect credentials, please try again.", errors.CategoryAuth).
	WithTextCode("BAD_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMissing is the logout failure when the presented key does
// not exist or the header is malformed.
var ErrTokenMissing = errors.New("Token does not exist.", errors.CategoryBadInput).
	WithTextCode("TOKEN_MISSING").
	WithCode(errors.CodeBadRequest)

// ErrUserMissing covers an undecodable uid or a missing user behind an
// activation or reset link.
var ErrUserMissing = errors.New("User does not exist.", errors.CategoryValidation).
	WithTextCode("USER_MISSING").
	WithCode(errors.CodeBadRequest)

// ErrInvalidActivationLink covers a failed signature check, including
// the self-invalidation after the account activates.
var ErrInvalidActivationLink = errors.New("Activation link is invalid.", errors.CategoryValidation).
	WithTextCode("INVALID_ACTIVATION_LINK").
	WithCode(errors.CodeBadRequest)

// ErrInvalidResetLink covers a failed or expired reset signature.
var ErrInvalidResetLink = errors.New("Password reset link is invalid.", errors.CategoryValidation).
	WithTextCode("INVALID_RESET_LINK").
	WithCode(errors.CodeBadRequest)

// ErrPermissionDenied is the generic authorization failure. It maps to
// 403, never 404, so it cannot leak resource existence.
var ErrPermissionDenied = errors.New("You do not have permission to perform this action.", errors.CategoryAuthz).
	WithTextCode("PERMISSION_DENIED").
	WithCode(errors.CodeForbidden)

// ErrMismatchedHashAndPassword reports a password verification failure.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// fieldErrorsKey is where per-field validation messages live in an
// error's metadata.
const fieldErrorsKey = "fields"

// NewValidationError builds a per-field validation failure. All field
// messages travel together so the client sees every problem at once.
func NewValidationError(fields map[string]string) *errors.Error {
	meta := make(map[string]any, len(fields))
	for field, msg := range fields {
		meta[field] = msg
	}
	return errors.New("Invalid input.", errors.CategoryValidation).
		WithTextCode("VALIDATION").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{fieldErrorsKey: meta})
}

// FieldErrors extracts the per-field messages from a validation error,
// or nil when err carries none.
func FieldErrors(err error) map[string]any {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return nil
	}
	if rich.Metadata == nil {
		return nil
	}
	fields, ok := rich.Metadata[fieldErrorsKey].(map[string]any)
	if !ok {
		return nil
	}
	return fields
}

// StatusForError maps the error taxonomy onto HTTP statuses.
func StatusForError(err error) int {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return fiber.StatusInternalServerError
	}

	switch rich.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
