/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"
	"github.com/flamego/template"

	"github.com/humaidq/labtrack/db"
)

var listTestResultsForUserFn = db.ListTestResultsForUser

// History lists the signed-in identity's own results, newest first.
func History(c flamego.Context, v Viewer, t template.Template, data template.Data) {
	data["Title"] = "My results"

	identity := v.Identity()
	if identity == nil {
		c.Redirect(pathUserLogin, http.StatusFound)
		return
	}

	results, err := listTestResultsForUserFn(c.Request().Context(), identity.ID.String())
	if err != nil {
		logger.Error("Failed to list results for user", "identity_id", identity.ID, "error", err)
		data["Error"] = err.Error()
		t.HTML(http.StatusInternalServerError, "history")
		return
	}

	data["Results"] = results
	t.HTML(http.StatusOK, "history")
}
