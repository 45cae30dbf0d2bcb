/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/labtrack/auth"
	"github.com/humaidq/labtrack/db"
)

const (
	pathUserLogin  = "/auth/login"
	pathAdminLogin = "/admin/login"
	pathAdminHome  = "/admin/items"
	pathUserHome   = "/tests"
)

// Viewer is the resolved authentication state of the current request.
type Viewer struct {
	State   auth.State
	Session *auth.Session
}

// Identity returns the signed-in identity, or nil.
func (v Viewer) Identity() *db.Identity {
	if v.Session == nil {
		return nil
	}
	return v.Session.Identity
}

// ResolveViewer settles the session state through the controller and maps a
// Viewer for later handlers.
func ResolveViewer(c flamego.Context, s session.Session, controller *auth.Controller, data template.Data) {
	state, current := controller.Resolve(c.Request().Context(), s)
	viewer := Viewer{State: state, Session: current}
	c.Map(viewer)

	data["IsAuthenticated"] = state.SignedIn()
	data["IsAdmin"] = state == auth.StateAdmin
	if identity := viewer.Identity(); identity != nil {
		data["ViewerEmail"] = identity.Email
		data["ViewerName"] = identity.Name()
	}
}

// landingPath returns where a session in the given state starts.
func landingPath(state auth.State) string {
	switch state {
	case auth.StateAdmin:
		return pathAdminHome
	case auth.StateUser:
		return pathUserHome
	default:
		return pathUserLogin
	}
}

// RequireSignedIn admits any signed-in identity.
func RequireSignedIn(c flamego.Context, s session.Session, v Viewer) {
	if !v.State.SignedIn() {
		logAccessDenied(c, s, "not_signed_in", pathUserLogin)
		c.Redirect(pathUserLogin, http.StatusFound)
		return
	}
	c.Next()
}

// RequireAdmin admits administrators only. The role is checked against a
// fresh read of the identity, not the session copy.
func RequireAdmin(c flamego.Context, s session.Session, v Viewer, provider *auth.Provider) {
	if !v.State.SignedIn() {
		logAccessDenied(c, s, "not_signed_in", pathAdminLogin)
		c.Redirect(pathAdminLogin, http.StatusFound)
		return
	}

	identity, err := provider.User(c.Request().Context(), s)
	if err != nil {
		logAccessDenied(c, s, "identity_unavailable", pathAdminLogin, "error", err)
		c.Redirect(pathAdminLogin, http.StatusFound)
		return
	}
	if !auth.IsAdmin(identity) {
		logAccessDenied(c, s, "not_admin", pathAdminLogin)
		c.Redirect(pathAdminLogin, http.StatusFound)
		return
	}

	c.Next()
}

// Landing sends the visitor to the start page of their state.
func Landing(c flamego.Context, v Viewer) {
	c.Redirect(landingPath(v.State), http.StatusFound)
}

// NotFound redirects unknown paths to the landing page of the current state.
func NotFound(c flamego.Context, v Viewer) {
	c.Redirect(landingPath(v.State), http.StatusFound)
}
