package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits.
const (
	maxEmailLength    = 50
	maxUsernameLength = 20
	maxNameLength     = 20
	minPasswordLength = 8

	defaultPageLimit = 20
	maxPageLimit     = 50
)

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// err returns a ValidationError carrying the fields, or nil when empty.
func (f fieldErrors) err() *APIError {
	if len(f) == 0 {
		return nil
	}
	return errValidation(msgValidationFailed, f)
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) *APIError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge("Request body is too large.")
		}
		return errValidation("Invalid JSON body.", nil)
	}
	return nil
}

func validateEmail(f fieldErrors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		f.add("email", "Email is required.")
	case utf8.RuneCountInString(email) > maxEmailLength:
		f.add("email", "Email must be less than 50 characters.")
	case !isEmail(email):
		f.add("email", "Invalid email address.")
	}
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == strings.TrimSpace(s) && strings.Contains(addr.Address, ".")
}

// validatePassword requires at least 8 characters with an upper-case
// letter, a lower-case letter and a digit.
func validatePassword(f fieldErrors, password string) {
	if password == "" {
		f.add("password", "Password is required.")
		return
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		f.add("password", "Password must be at least 8 characters long.")
		return
	}
	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		f.add("password", "Password must contain an upper-case letter, a lower-case letter and a digit.")
	}
}

func validateUsername(f fieldErrors, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		f.add("username", "Username cannot be empty.")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		f.add("username", "Username must be less than 20 characters.")
	}
}

func validateName(f fieldErrors, field, name string) {
	if utf8.RuneCountInString(name) > maxNameLength {
		f.add(field, "Must be less than 20 characters.")
	}
}

// parsePage reads limit and offset query parameters. Limit must be 1-50
// and offset non-negative.
func parsePage(r *http.Request) (limit, offset int, apiErr *APIError) {
	f := fieldErrors{}
	limit, offset = defaultPageLimit, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			f.add("limit", "Limit must be between 1 and 50.")
		} else {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			f.add("offset", "Offset must be a positive integer.")
		} else {
			offset = n
		}
	}
	return limit, offset, f.err()
}
