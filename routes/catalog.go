/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/labtrack/db"
)

var (
	listTestingItemsFn           = db.ListTestingItems
	getTestingItemFn             = db.GetTestingItem
	createTestingItemFn          = db.CreateTestingItem
	deleteTestingItemFn          = db.DeleteTestingItem
	countResultsForTestingItemFn = db.CountResultsForTestingItem
)

// testingItemForm keeps the raw form values so a failed create can be
// re-rendered as entered.
type testingItemForm struct {
	NameEn          string
	NameSecondary   string
	ReferenceRange  string
	MeasurementUnit string
	RiskLevelLow    string
	RiskLevelHigh   string
	Interpretation  string
	Notes           string
}

func parseTestingItemForm(values url.Values) (testingItemForm, db.CreateTestingItemInput, error) {
	form := testingItemForm{
		NameEn:          strings.TrimSpace(values.Get("name_en")),
		NameSecondary:   strings.TrimSpace(values.Get("name_secondary")),
		ReferenceRange:  strings.TrimSpace(values.Get("reference_range")),
		MeasurementUnit: strings.TrimSpace(values.Get("measurement_unit")),
		RiskLevelLow:    strings.TrimSpace(values.Get("risk_level_low")),
		RiskLevelHigh:   strings.TrimSpace(values.Get("risk_level_high")),
		Interpretation:  strings.TrimSpace(values.Get("interpretation")),
		Notes:           strings.TrimSpace(values.Get("notes")),
	}

	input := db.CreateTestingItemInput{
		NameEn:          form.NameEn,
		NameSecondary:   optionalText(form.NameSecondary),
		ReferenceRange:  form.ReferenceRange,
		MeasurementUnit: form.MeasurementUnit,
		Interpretation:  form.Interpretation,
		Notes:           optionalText(form.Notes),
	}

	var err error
	if input.RiskLevelLow, err = optionalNumber(form.RiskLevelLow); err != nil {
		return form, input, errInvalidThreshold
	}
	if input.RiskLevelHigh, err = optionalNumber(form.RiskLevelHigh); err != nil {
		return form, input, errInvalidThreshold
	}

	if err := input.Validate(); err != nil {
		return form, input, err
	}

	return form, input, nil
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalNumber(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// AdminHome redirects to the catalog management page.
func AdminHome(c flamego.Context) {
	c.Redirect(pathAdminHome, http.StatusFound)
}

// TestingItems renders the catalog management page, newest first.
func TestingItems(c flamego.Context, t template.Template, data template.Data) {
	renderTestingItems(c, t, data, http.StatusOK)
}

func renderTestingItems(c flamego.Context, t template.Template, data template.Data, status int) {
	items, err := listTestingItemsFn(c.Request().Context(), db.OrderByNewest)
	if err != nil {
		logger.Error("Failed to list testing items", "error", err)
		data["LoadError"] = err.Error()
	}

	if _, ok := data["Form"]; !ok {
		data["Form"] = testingItemForm{}
	}
	data["Title"] = "Testing items"
	data["Items"] = items
	t.HTML(status, "admin_items")
}

// CreateTestingItem adds an item to the catalog. On failure the page is
// re-rendered with the entered values.
func CreateTestingItem(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	if err := c.Request().ParseForm(); err != nil {
		data["Error"] = "Failed to parse form data"
		renderTestingItems(c, t, data, http.StatusBadRequest)
		return
	}

	form, input, err := parseTestingItemForm(c.Request().Form)
	data["Form"] = form
	if err != nil {
		data["Error"] = err.Error()
		renderTestingItems(c, t, data, http.StatusUnprocessableEntity)
		return
	}

	item, err := createTestingItemFn(c.Request().Context(), input)
	if err != nil {
		logger.Error("Failed to create testing item", "name", input.NameEn, "error", err)
		data["Error"] = err.Error()
		renderTestingItems(c, t, data, http.StatusInternalServerError)
		return
	}

	logger.Info("Testing item created", "testing_item_id", item.ID, "name", item.NameEn)
	SetSuccessFlash(s, "Testing item added")
	c.Redirect(pathAdminHome, http.StatusSeeOther)
}

// ConfirmDeleteTestingItem shows the item and how many results go with it.
func ConfirmDeleteTestingItem(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	id := c.Param("id")

	item, err := getTestingItemFn(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrTestingItemNotFound) {
			logger.Error("Failed to get testing item", "testing_item_id", id, "error", err)
		}
		SetErrorFlash(s, err.Error())
		c.Redirect(pathAdminHome, http.StatusSeeOther)
		return
	}

	count, err := countResultsForTestingItemFn(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to count results for testing item", "testing_item_id", id, "error", err)
		SetErrorFlash(s, err.Error())
		c.Redirect(pathAdminHome, http.StatusSeeOther)
		return
	}

	data["Title"] = "Delete testing item"
	data["Item"] = item
	data["ResultCount"] = count
	t.HTML(http.StatusOK, "admin_item_delete")
}

// DeleteTestingItem removes an item once the confirmation was given.
func DeleteTestingItem(c flamego.Context, s session.Session) {
	id := c.Param("id")
	confirmPath := pathAdminHome + "/" + url.PathEscape(id) + "/delete"

	if err := c.Request().ParseForm(); err != nil {
		SetErrorFlash(s, "Failed to parse form data")
		c.Redirect(confirmPath, http.StatusSeeOther)
		return
	}
	if c.Request().Form.Get("confirm") != "yes" {
		c.Redirect(confirmPath, http.StatusSeeOther)
		return
	}

	if err := deleteTestingItemFn(c.Request().Context(), id); err != nil {
		if !errors.Is(err, db.ErrTestingItemNotFound) {
			logger.Error("Failed to delete testing item", "testing_item_id", id, "error", err)
		}
		SetErrorFlash(s, err.Error())
		c.Redirect(pathAdminHome, http.StatusSeeOther)
		return
	}

	logger.Info("Testing item deleted", "testing_item_id", id)
	SetSuccessFlash(s, "Testing item deleted")
	c.Redirect(pathAdminHome, http.StatusSeeOther)
}
