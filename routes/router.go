/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
)

// Register installs the route table. It expects session.Session,
// session.Store, csrf.CSRF, template.Template, template.Data, *auth.Provider
// and *auth.Controller to be mapped by earlier middleware.
func Register(f *flamego.Flame) {
	f.Use(ResolveViewer)

	f.Get(pathUserLogin, UserLoginForm)
	f.Post(pathUserLogin, csrf.Validate, UserLogin)
	f.Get("/auth/signup", SignupForm)
	f.Post("/auth/signup", csrf.Validate, Signup)
	f.Get(pathAdminLogin, AdminLoginForm)
	f.Post(pathAdminLogin, csrf.Validate, AdminLogin)
	f.Post("/logout", csrf.Validate, Logout)

	f.Group("", func() {
		f.Get("/", Landing)
		f.Get(pathUserHome, TestForm)
		f.Post(pathUserHome, csrf.Validate, SubmitTests)
		f.Get(pathUserHome+"/summary", TestSummary)
		f.Get(pathUserHome+"/summary/download", DownloadTranscript)
		f.Get("/history", History)
	}, RequireSignedIn)

	f.Group("/admin", func() {
		f.Get("", AdminHome)
		f.Get("/items", TestingItems)
		f.Post("/items", csrf.Validate, CreateTestingItem)
		f.Get("/items/{id}/delete", ConfirmDeleteTestingItem)
		f.Post("/items/{id}/delete", csrf.Validate, DeleteTestingItem)
		f.Get("/results", ReviewResults)
	}, RequireAdmin)

	f.NotFound(NotFound)
}
