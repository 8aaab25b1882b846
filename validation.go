package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Field limits shared by the HTTP payloads and the register command.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 100
	EmailMaxLength    = 255
	PasswordMinLength = 6
	PasswordMaxLength = 100

	// PasswordMaxBytes is the most bcrypt will hash. Multi byte runes reach
	// it well before PasswordMaxLength.
	PasswordMaxBytes = 72
)

// NewValidationError turns ozzo field errors into ErrValidation with a
// "fields" map in its metadata. Anything else is returned as is.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	return ErrValidation.Clone().WithMetadata(map[string]any{
		"fields": FormatValidationErrorToMap(verrs),
	})
}

// FormatValidationErrorToMap flattens ozzo errors to field -> message.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return out
	}
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(UsernameMinLength, UsernameMaxLength),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(0, EmailMaxLength),
		is.Email,
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(PasswordMinLength, PasswordMaxLength),
		validation.By(maxBytes(PasswordMaxBytes)),
	}
}

func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > limit {
			return fmt.Errorf("must be no more than %d bytes long", limit)
		}
		return nil
	}
}
