package auth

import (
	"net/mail"
	"regexp"
	"unicode/utf8"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	minPasswordLen = 6
	// bcrypt rejects anything longer.
	maxPasswordLen = 72
)

// ValidateUsername returns the first rule the username breaks.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < 2:
		return apperr.Invalid("Username must be at least 2 characters")
	case n > 20:
		return apperr.Invalid("Username must be no more than 20 characters")
	case !usernamePattern.MatchString(username):
		return apperr.Invalid("Username must not contain special characters")
	}
	return nil
}

func validateSignUp(req models.SignUpRequest) error {
	if err := ValidateUsername(req.Username); err != nil {
		return err
	}
	// A bare address only: "Bob <bob@x.com>" parses but could never be used
	// to sign in.
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return apperr.Invalid("Invalid email address")
	}
	switch {
	case len(req.Password) < minPasswordLen:
		return apperr.Invalid("Password must be at least 6 characters")
	case len(req.Password) > maxPasswordLen:
		return apperr.Invalid("Password must be at most 72 bytes")
	}
	return nil
}
