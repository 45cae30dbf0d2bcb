/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/labtrack/auth"
)

func renderLogin(t template.Template, data template.Data, admin bool, status int) {
	data["HeaderOnly"] = true
	data["AdminLogin"] = admin
	if admin {
		data["Title"] = "Admin sign in"
		data["LoginAction"] = pathAdminLogin
	} else {
		data["Title"] = "Sign in"
		data["LoginAction"] = pathUserLogin
	}
	t.HTML(status, "login")
}

// UserLoginForm renders the user sign in page.
func UserLoginForm(c flamego.Context, v Viewer, t template.Template, data template.Data) {
	if v.State.SignedIn() {
		c.Redirect(landingPath(v.State), http.StatusFound)
		return
	}
	renderLogin(t, data, false, http.StatusOK)
}

// UserLogin signs a user in with email and password.
func UserLogin(c flamego.Context, s session.Session, store session.Store, provider *auth.Provider, controller *auth.Controller, t template.Template, data template.Data) {
	if err := c.Request().ParseForm(); err != nil {
		data["Error"] = "Failed to parse form data"
		renderLogin(t, data, false, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(c.Request().Form.Get("email"))
	password := c.Request().Form.Get("password")
	remember := c.Request().Form.Get("remember") == "on"
	data["Email"] = email

	if err := rotateSessionID(c, s, store, controller); err != nil {
		logger.Error("Failed to rotate session ID", "error", err)
		data["Error"] = "Failed to start session"
		renderLogin(t, data, false, http.StatusInternalServerError)
		return
	}

	issued, err := provider.SignIn(c.Request().Context(), s, auth.SignInInput{
		Email:    email,
		Password: password,
		Remember: remember,
	})
	if err != nil {
		logger.Info("Sign in rejected", "email", email, "error", err)
		data["Error"] = err.Error()
		renderLogin(t, data, false, http.StatusUnauthorized)
		return
	}

	c.Redirect(landingPath(auth.StateFor(issued.Identity)), http.StatusSeeOther)
}

// AdminLoginForm renders the administrator sign in page.
func AdminLoginForm(c flamego.Context, v Viewer, t template.Template, data template.Data) {
	if v.State == auth.StateAdmin {
		c.Redirect(pathAdminHome, http.StatusFound)
		return
	}
	renderLogin(t, data, true, http.StatusOK)
}

// AdminLogin signs an administrator in. Valid credentials of a non-admin
// identity are rejected without issuing a session.
func AdminLogin(c flamego.Context, s session.Session, store session.Store, provider *auth.Provider, controller *auth.Controller, t template.Template, data template.Data) {
	if err := c.Request().ParseForm(); err != nil {
		data["Error"] = "Failed to parse form data"
		renderLogin(t, data, true, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(c.Request().Form.Get("email"))
	password := c.Request().Form.Get("password")
	data["Email"] = email

	identity, err := provider.Authenticate(c.Request().Context(), email, password)
	if err != nil {
		logger.Info("Admin sign in rejected", "email", email, "error", err)
		data["Error"] = err.Error()
		renderLogin(t, data, true, http.StatusUnauthorized)
		return
	}

	if !auth.IsAdmin(identity) {
		logAccessDenied(c, s, "not_admin", pathAdminLogin, "email", email)
		data["Error"] = auth.ErrAdminRequired.Error()
		renderLogin(t, data, true, http.StatusForbidden)
		return
	}

	if err := rotateSessionID(c, s, store, controller); err != nil {
		logger.Error("Failed to rotate session ID", "error", err)
		data["Error"] = "Failed to start session"
		renderLogin(t, data, true, http.StatusInternalServerError)
		return
	}

	provider.StartSession(s, identity, false)
	c.Redirect(pathAdminHome, http.StatusSeeOther)
}

// SignupForm renders the registration page.
func SignupForm(c flamego.Context, v Viewer, t template.Template, data template.Data) {
	if v.State.SignedIn() {
		c.Redirect(landingPath(v.State), http.StatusFound)
		return
	}
	data["HeaderOnly"] = true
	t.HTML(http.StatusOK, "signup")
}

// Signup registers a new identity and signs it in.
func Signup(c flamego.Context, s session.Session, store session.Store, provider *auth.Provider, controller *auth.Controller, t template.Template, data template.Data) {
	data["HeaderOnly"] = true

	if err := c.Request().ParseForm(); err != nil {
		data["Error"] = "Failed to parse form data"
		t.HTML(http.StatusBadRequest, "signup")
		return
	}

	form := c.Request().Form
	input := auth.SignUpInput{
		Email:       strings.TrimSpace(form.Get("email")),
		Password:    form.Get("password"),
		DisplayName: strings.TrimSpace(form.Get("name")),
	}
	data["Email"] = input.Email
	data["Name"] = input.DisplayName

	if input.DisplayName == "" {
		data["Error"] = errDisplayNameRequired.Error()
		t.HTML(http.StatusUnprocessableEntity, "signup")
		return
	}
	if input.Password != form.Get("confirm_password") {
		data["Error"] = errPasswordsDoNotMatch.Error()
		t.HTML(http.StatusUnprocessableEntity, "signup")
		return
	}

	if err := rotateSessionID(c, s, store, controller); err != nil {
		logger.Error("Failed to rotate session ID", "error", err)
		data["Error"] = "Failed to start session"
		t.HTML(http.StatusInternalServerError, "signup")
		return
	}

	if _, err := provider.SignUp(c.Request().Context(), s, input); err != nil {
		logger.Info("Sign up rejected", "email", input.Email, "error", err)
		data["Error"] = err.Error()
		t.HTML(http.StatusUnprocessableEntity, "signup")
		return
	}

	SetSuccessFlash(s, "Account created")
	c.Redirect(pathUserHome, http.StatusSeeOther)
}

// Logout ends the session and returns to the matching sign in page.
func Logout(c flamego.Context, s session.Session, v Viewer, provider *auth.Provider) {
	target := pathUserLogin
	if v.State == auth.StateAdmin {
		target = pathAdminLogin
	}

	if err := provider.SignOut(c.Request().Context(), s); err != nil {
		logger.Error("Failed to sign out", "error", err)
	}

	c.Redirect(target, http.StatusSeeOther)
}

// rotateSessionID issues a fresh session ID before an identity is attached
// and discards the old one.
func rotateSessionID(c flamego.Context, s session.Session, store session.Store, controller *auth.Controller) error {
	oldSessionID := s.ID()
	if err := s.RegenerateID(c.ResponseWriter(), c.Request().Request); err != nil {
		return fmt.Errorf("regenerate session ID: %w", err)
	}

	if oldSessionID == "" || oldSessionID == s.ID() {
		return nil
	}

	controller.Forget(oldSessionID)

	if err := store.Destroy(c.Request().Context(), oldSessionID); err != nil {
		logger.Warn("Failed to destroy old session after ID rotation", "error", err)
	}

	return nil
}
