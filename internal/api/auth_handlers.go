package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BaamPark/WebLabelMV/internal/apperr"
	"github.com/BaamPark/WebLabelMV/internal/auth"
	"github.com/BaamPark/WebLabelMV/internal/models"
	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentials) validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return apperr.InvalidInput("Username and password are required")
	}
	return nil
}

func (app *App) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		app.respondError(w, r, err)
		return
	}
	if err := creds.validate(); err != nil {
		app.respondError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	user := models.NewUser(strings.TrimSpace(creds.Username), hash)
	if err := app.Users.CreateUser(r.Context(), user); err != nil {
		app.respondError(w, r, err)
		return
	}

	app.Logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	respondJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (app *App) SigninHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		app.respondError(w, r, err)
		return
	}
	if err := creds.validate(); err != nil {
		app.respondError(w, r, err)
		return
	}

	invalid := apperr.Unauthorized("Invalid credentials")

	user, err := app.Users.GetUserByUsername(r.Context(), strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = invalid
		}
		app.respondError(w, r, err)
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, creds.Password)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	if !ok {
		app.respondError(w, r, invalid)
		return
	}

	token, err := app.Tokens.Issue(user.ID)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
