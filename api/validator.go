package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	titleMinLength       = 3
	titleMaxLength       = 200
	descriptionMinLength = 5
	descriptionMaxLength = 1000
	passwordMinLength    = 8
	passwordMaxLength    = 72
	usernameMaxLength    = 150
)

const titleForbiddenChars = `<>{}[]&"'`

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9@.+\-_]+$`)

var commonPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"12345678":  {},
	"123456789": {},
	"qwerty123": {},
	"letmein1":  {},
	"iloveyou":  {},
	"admin123":  {},
	"welcome1":  {},
	"abc12345":  {},
}

type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

func (v *validator) hasErrors() bool {
	return len(v.errors) != 0
}

func (v *validator) checkCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkEmail(email string) {
	v.checkCond(email != "", "email", "must be provided")
	v.checkCond(emailRegexp.MatchString(email), "email", "must be a valid email address")
}

func (v *validator) checkUsername(username string) {
	v.checkCond(username != "", "username", "must be provided")
	v.checkCond(utf8.RuneCountInString(username) >= 3, "username", "must be atleast 3 characters long")
	v.checkCond(utf8.RuneCountInString(username) <= usernameMaxLength, "username", fmt.Sprintf("must be atmost %d characters long", usernameMaxLength))
	v.checkCond(username == "" || usernameRegexp.MatchString(username), "username", "may contain only letters, digits and @/./+/-/_")
}

// checkPassword applies the strength policy: length bounds, not purely
// numeric, not a known common password and not too similar to the
// user's identity fields.
func (v *validator) checkPassword(password string, key string, identity ...string) {
	v.checkCond(password != "", key, "must be provided")
	// Byte counts here: bcrypt caps its input at 72 bytes.
	v.checkCond(len(password) >= passwordMinLength, key, fmt.Sprintf("must be atleast %d characters long", passwordMinLength))
	v.checkCond(len(password) <= passwordMaxLength, key, fmt.Sprintf("must be atmost %d characters long", passwordMaxLength))
	v.checkCond(!isNumericOnly(password), key, "must not be entirely numeric")
	_, common := commonPasswords[strings.ToLower(password)]
	v.checkCond(!common, key, "is too common")
	for _, attr := range identity {
		v.checkCond(!tooSimilar(password, attr), key, "is too similar to your username or email")
	}
}

// checkTitle validates and returns the trimmed title.
func (v *validator) checkTitle(title string) string {
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		v.checkCond(false, "title", "must be provided")
		return cleaned
	}
	v.checkCond(utf8.RuneCountInString(cleaned) >= titleMinLength, "title", fmt.Sprintf("must be atleast %d characters long", titleMinLength))
	v.checkCond(utf8.RuneCountInString(cleaned) <= titleMaxLength, "title", fmt.Sprintf("must be atmost %d characters long", titleMaxLength))
	v.checkCond(!strings.ContainsAny(cleaned, titleForbiddenChars), "title", "contains forbidden characters")
	v.checkCond(containsAlphanumeric(cleaned), "title", "must contain atleast one alphanumeric character")
	return cleaned
}

// checkDescription validates and returns the trimmed description, or
// nil when the value is empty and not required.
func (v *validator) checkDescription(description string, required bool) *string {
	cleaned := strings.TrimSpace(description)
	if cleaned == "" {
		v.checkCond(!required, "description", "must be provided")
		return nil
	}
	v.checkCond(utf8.RuneCountInString(cleaned) >= descriptionMinLength, "description", fmt.Sprintf("must be atleast %d characters long if provided", descriptionMinLength))
	v.checkCond(utf8.RuneCountInString(cleaned) <= descriptionMaxLength, "description", fmt.Sprintf("must be atmost %d characters long", descriptionMaxLength))
	return &cleaned
}

// checkStatus validates a status value. Creation additionally rejects
// completed: a task can't be born finished.
func (v *validator) checkStatus(status string, forCreation bool) {
	if !isValidStatus(status) {
		v.checkCond(false, "status", fmt.Sprintf("must be one of: %s, %s, %s", statusPending, statusInProgress, statusCompleted))
		return
	}
	if forCreation {
		v.checkCond(status != statusCompleted, "status", fmt.Sprintf("a new task cannot be created with status %q", statusCompleted))
	}
}

func containsAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isNumericOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar reports whether the password is a trivial variation of an
// identity attribute. For emails only the local part is considered.
func tooSimilar(password, attr string) bool {
	attr, _, _ = strings.Cut(attr, "@")
	if len(attr) < 4 {
		return false
	}
	p := strings.ToLower(password)
	a := strings.ToLower(attr)
	return strings.Contains(p, a) || strings.Contains(a, p)
}
