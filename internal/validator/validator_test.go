package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"valid", "Steve", ""},
		{"blank", "   ", "can't be blank"},
		{"exactly 50", strings.Repeat("a", 50), ""},
		{"too long", strings.Repeat("a", 51), "is too long (maximum is 50 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs Errors
			ValidateName(tt.input, &errs)
			if tt.wantMsg == "" {
				assert.False(t, errs.HasErrors())
				return
			}
			assert.Equal(t, []string{tt.wantMsg}, errs.For("name"))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@foo.com", "THE_USER@foo.bar.org", "first.last@foo.jp", "a+b@example.com"}
	invalid := []string{"user@foo,com", "user_at_foo.org", "example.user@foo.", "foo@bar"}

	for _, email := range valid {
		var errs Errors
		ValidateEmail(email, &errs)
		assert.False(t, errs.HasErrors(), email)
	}
	for _, email := range invalid {
		var errs Errors
		ValidateEmail(email, &errs)
		assert.Equal(t, []string{"is invalid"}, errs.For("email"), email)
	}

	var errs Errors
	ValidateEmail("", &errs)
	assert.Equal(t, []string{"can't be blank"}, errs.For("email"))

	long := strings.Repeat("a", 244) + "@example.com"
	errs = nil
	ValidateEmail(long, &errs)
	assert.Equal(t, []string{"is too long (maximum is 255 characters)"}, errs.For("email"))

	errs = nil
	ValidateEmail(long[1:], &errs)
	assert.False(t, errs.HasErrors())
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		confirmation string
		fields       []string
	}{
		{"valid", "foobar", "foobar", nil},
		{"blank", "", "", []string{"password"}},
		{"too short", "aaaaa", "aaaaa", []string{"password"}},
		{"too long", strings.Repeat("a", 41), strings.Repeat("a", 41), []string{"password"}},
		{"mismatch", "foobar", "invalid", []string{"password_confirmation"}},
		{"short and mismatch", "abc", "xyz", []string{"password", "password_confirmation"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs Errors
			ValidatePassword(tt.password, tt.confirmation, &errs)
			var got []string
			for _, fe := range errs {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidateContent(t *testing.T) {
	var errs Errors
	ValidateContent("hello", 140, &errs)
	assert.False(t, errs.HasErrors())

	ValidateContent(" ", 140, &errs)
	ValidateContent(strings.Repeat("x", 141), 140, &errs)
	assert.Equal(t, []string{"can't be blank", "is too long (maximum is 140 characters)"}, errs.For("content"))
}

func TestErrors_CollectsEveryViolation(t *testing.T) {
	var errs Errors
	ValidateName("", &errs)
	ValidateEmail("", &errs)
	ValidatePassword("", "x", &errs)

	assert.Len(t, errs, 4)
	assert.Equal(t, []string{
		"Name can't be blank",
		"Email can't be blank",
		"Password can't be blank",
		"Password confirmation doesn't match Password",
	}, errs.Messages())

	var err error = errs
	var target Errors
	assert.True(t, errors.As(err, &target))
	assert.Contains(t, err.Error(), "Email can't be blank")
}
