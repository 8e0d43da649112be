// Package validator collects field-level validation failures so a form can be
// redisplayed with every violation at once.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldError is a single violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the ordered list of violations of one input.
type Errors []FieldError

// Add appends a violation for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// For returns the messages recorded for field.
func (e Errors) For(field string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

// Messages returns every violation as "Field message".
func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, humanize(fe.Field)+" "+fe.Message)
	}
	return out
}

func (e Errors) Error() string {
	return strings.Join(e.Messages(), "; ")
}

var emailRegex = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

const (
	NameMaxLength     = 50
	EmailMaxLength    = 255
	PasswordMinLength = 6
	PasswordMaxLength = 40
)

// ValidateName checks presence and maximum length of a display name.
func ValidateName(name string, errs *Errors) {
	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "can't be blank")
	} else if utf8.RuneCountInString(name) > NameMaxLength {
		errs.Add("name", "is too long (maximum is 50 characters)")
	}
}

// ValidateEmail checks presence, length and format of an email address.
func ValidateEmail(email string, errs *Errors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "can't be blank")
	} else if utf8.RuneCountInString(email) > EmailMaxLength {
		errs.Add("email", "is too long (maximum is 255 characters)")
	} else if !emailRegex.MatchString(email) {
		errs.Add("email", "is invalid")
	}
}

// ValidatePassword checks presence, length and confirmation of a password.
func ValidatePassword(password, confirmation string, errs *Errors) {
	n := utf8.RuneCountInString(password)
	switch {
	case password == "":
		errs.Add("password", "can't be blank")
	case n < PasswordMinLength:
		errs.Add("password", "is too short (minimum is 6 characters)")
	case n > PasswordMaxLength:
		errs.Add("password", "is too long (maximum is 40 characters)")
	}
	if password != confirmation {
		errs.Add("password_confirmation", "doesn't match Password")
	}
}

// ValidateContent checks presence and maximum length of micropost content.
func ValidateContent(content string, maxLength int, errs *Errors) {
	content = strings.TrimSpace(content)
	if content == "" {
		errs.Add("content", "can't be blank")
	} else if utf8.RuneCountInString(content) > maxLength {
		errs.Add("content", fmt.Sprintf("is too long (maximum is %d characters)", maxLength))
	}
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
