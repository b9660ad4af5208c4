package main

import (
	"errors"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := newValidator()
	v.checkUsername(input.Username)
	v.checkEmail(input.Email)
	v.checkPassword(input.Password, "password", input.Username, input.Email)
	v.checkCond(input.Password == input.PasswordConfirm, "password_confirm", "passwords do not match")
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	// Fast-path duplicate checks; the unique indexes remain the
	// authoritative guard.
	existing, err := app.storage.getUserByUsername(input.Username)
	if err != nil {
		writeServerError(w, err)
		return
	}
	v.checkCond(existing == nil, "username", "a user with this username already exists")
	existing, err = app.storage.getUserByEmail(input.Email)
	if err != nil {
		writeServerError(w, err)
		return
	}
	v.checkCond(existing == nil, "email", "a user with this email already exists")
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		writeServerError(w, err)
		return
	}
	u := &user{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	err = app.storage.insertUser(u)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "a user with this username or email already exists")
			return
		}
		writeServerError(w, err)
		return
	}

	if app.mailer != nil {
		go func(u user) {
			err := app.mailer.send(u.Email, welcomeTemplate, u)
			if err != nil {
				log.Println(err)
			}
		}(*u)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user registered successfully",
		"user":    u,
	})
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v := newValidator()
	v.checkCond(input.UsernameOrEmail != "", "username_or_email", "must be provided")
	v.checkCond(input.Password != "", "password", "must be provided")
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	u, err := app.storage.getUserByUsername(input.UsernameOrEmail)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if u == nil {
		u, err = app.storage.getUserByEmail(input.UsernameOrEmail)
		if err != nil {
			writeServerError(w, err)
			return
		}
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusUnauthorized, "user account is disabled")
		return
	}

	tokens, err := generateTokenPair(app.config.jwt.secret, u.ID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    u,
		"tokens":  tokens,
	})
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	err := readJSON(w, r, &input)
	if err != nil || input.Refresh == "" {
		writeError(w, http.StatusBadRequest, "refresh token must be provided")
		return
	}
	claims, err := parseToken(app.config.jwt.secret, input.Refresh, tokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or expired refresh token")
		return
	}
	if app.blacklist.isRevoked(claims.ID) {
		writeError(w, http.StatusBadRequest, "refresh token has been revoked")
		return
	}

	u, err := app.storage.getUserByID(claims.UserID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if u == nil {
		// Can't rotate without an owner; hand back a fresh access token
		// and leave the refresh token alone.
		access, err := generateToken(app.config.jwt.secret, claims.UserID, tokenTypeAccess, accessTokenLifetime)
		if err != nil {
			writeServerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  access,
			"message": "access token refreshed",
		})
		return
	}

	tokens, err := app.rotateRefreshToken(claims)
	if err != nil {
		if errors.Is(err, errInvalidToken) {
			writeError(w, http.StatusBadRequest, "refresh token has been revoked")
			return
		}
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"message": "tokens refreshed",
	})
}

func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var input struct {
		CurrentPassword    string `json:"current_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := newValidator()
	v.checkCond(input.CurrentPassword != "", "current_password", "must be provided")
	v.checkPassword(input.NewPassword, "new_password", u.Username, u.Email)
	v.checkCond(input.NewPassword == input.NewPasswordConfirm, "new_password_confirm", "passwords do not match")
	v.checkCond(input.NewPassword != input.CurrentPassword, "new_password", "must be different from the current password")
	if input.CurrentPassword != "" {
		err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.CurrentPassword))
		v.checkCond(err == nil, "current_password", "is incorrect")
	}
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeServerError(w, err)
		return
	}
	u.PasswordHash = hash
	err = app.storage.updateUser(u)
	if err != nil {
		if errors.Is(err, errEditConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}
