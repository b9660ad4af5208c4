package main

import (
	"strings"
	"testing"
)

func TestCheckTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		want    string
		wantErr bool
	}{
		{"valid", "Buy milk", "Buy milk", false},
		{"trims whitespace", "  Buy milk  ", "Buy milk", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"too short", "ab", "", true},
		{"minimum length", "abc", "abc", false},
		{"too long", strings.Repeat("a", 201), "", true},
		{"maximum length", strings.Repeat("a", 200), strings.Repeat("a", 200), false},
		{"multibyte too short", "ññ", "", true},
		{"multibyte minimum length", "ñññ", "ñññ", false},
		{"multibyte maximum length", strings.Repeat("ñ", 200), strings.Repeat("ñ", 200), false},
		{"multibyte too long", strings.Repeat("ñ", 201), "", true},
		{"angle bracket", "task <script>", "", true},
		{"curly brace", "task {x}", "", true},
		{"square bracket", "task [1]", "", true},
		{"ampersand", "this & that", "", true},
		{"double quote", `say "hi"`, "", true},
		{"single quote", "don't", "", true},
		{"no alphanumeric", "---", "", true},
		{"unicode letters", "café tasks", "café tasks", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			got := v.checkTitle(tt.title)
			if v.hasErrors() != tt.wantErr {
				t.Fatalf("checkTitle(%q): hasErrors = %v, want %v (errors: %v)", tt.title, v.hasErrors(), tt.wantErr, v.errors)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("checkTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestCheckDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		required    bool
		wantNil     bool
		wantErr     bool
	}{
		{"empty optional", "", false, true, false},
		{"whitespace optional", "   ", false, true, false},
		{"empty required", "", true, true, true},
		{"valid", "some details", false, false, false},
		{"too short", "abcd", false, false, true},
		{"minimum length", "abcde", false, false, false},
		{"too long", strings.Repeat("a", 1001), false, false, true},
		{"maximum length", strings.Repeat("a", 1000), false, false, false},
		{"multibyte too short", "ññññ", false, false, true},
		{"multibyte minimum length", "ññññé", false, false, false},
		{"multibyte maximum length", strings.Repeat("é", 1000), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			got := v.checkDescription(tt.description, tt.required)
			if v.hasErrors() != tt.wantErr {
				t.Fatalf("checkDescription(%q, %v): hasErrors = %v, want %v", tt.description, tt.required, v.hasErrors(), tt.wantErr)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("checkDescription(%q, %v) = %v, wantNil %v", tt.description, tt.required, got, tt.wantNil)
			}
			if got != nil && *got != strings.TrimSpace(tt.description) {
				t.Errorf("checkDescription(%q, %v) = %q, want trimmed input", tt.description, tt.required, *got)
			}
		})
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		forCreation bool
		wantErr     bool
	}{
		{"pending", statusPending, false, false},
		{"in_progress", statusInProgress, false, false},
		{"completed", statusCompleted, false, false},
		{"unknown", "done", false, true},
		{"empty", "", false, true},
		{"pending at creation", statusPending, true, false},
		{"in_progress at creation", statusInProgress, true, false},
		{"completed at creation", statusCompleted, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			v.checkStatus(tt.status, tt.forCreation)
			if v.hasErrors() != tt.wantErr {
				t.Errorf("checkStatus(%q, %v): hasErrors = %v, want %v", tt.status, tt.forCreation, v.hasErrors(), tt.wantErr)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		identity []string
		wantErr  bool
	}{
		{"valid", "correct-horse-battery", nil, false},
		{"empty", "", nil, true},
		{"too short", "abc", nil, true},
		{"too long", strings.Repeat("a", 73), nil, true},
		{"purely numeric", "8675309112358", nil, true},
		{"too common", "password1", nil, true},
		{"too common mixed case", "Password1", nil, true},
		{"similar to username", "jonathan77", []string{"jonathan"}, true},
		{"similar to email local part", "xjonathan.doe!", []string{"jonathan.doe@example.com"}, true},
		{"unrelated to identity", "correct-horse-battery", []string{"jonathan", "jon@example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			v.checkPassword(tt.password, "password", tt.identity...)
			if v.hasErrors() != tt.wantErr {
				t.Errorf("checkPassword(%q): hasErrors = %v, want %v (errors: %v)", tt.password, v.hasErrors(), tt.wantErr, v.errors)
			}
		})
	}
}

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "jon.doe", false},
		{"valid with symbols", "jon+doe@work", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 151), true},
		{"spaces", "jon doe", true},
		{"forbidden rune", "jon#doe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			v.checkUsername(tt.username)
			if v.hasErrors() != tt.wantErr {
				t.Errorf("checkUsername(%q): hasErrors = %v, want %v", tt.username, v.hasErrors(), tt.wantErr)
			}
		})
	}
}

func TestCheckEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"jon@example.com", false},
		{"jon.doe+tag@sub.example.co", false},
		{"", true},
		{"not-an-email", true},
		{"@example.com", true},
	}
	for _, tt := range tests {
		v := newValidator()
		v.checkEmail(tt.email)
		if v.hasErrors() != tt.wantErr {
			t.Errorf("checkEmail(%q): hasErrors = %v, want %v", tt.email, v.hasErrors(), tt.wantErr)
		}
	}
}

func TestValidatorKeepsFirstError(t *testing.T) {
	v := newValidator()
	v.checkCond(false, "title", "first")
	v.checkCond(false, "title", "second")
	if v.errors["title"] != "first" {
		t.Errorf("errors[title] = %q, want %q", v.errors["title"], "first")
	}
}
