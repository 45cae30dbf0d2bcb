/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/gob"
	"errors"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"

	"github.com/humaidq/labtrack/auth"
	"github.com/humaidq/labtrack/db"
)

var (
	submitTestResultsFn = db.SubmitTestResults
	nowFn               = time.Now
)

const (
	submissionTokensKey  = "submission_tokens"
	submissionSummaryKey = "submission_summary"

	// maxOutstandingTokens bounds how many open submission forms a session
	// can hold at once; the oldest token is dropped first.
	maxOutstandingTokens = 8
)

//nolint:staticcheck // user-facing message
var errNoTestingItems = errors.New("No testing items are available yet")

// SubmissionSummary is what the user sees after a successful submission. It
// is kept in the session and never refetched.
type SubmissionSummary struct {
	SubmittedAt time.Time
	Entries     []SummaryEntry
}

// SummaryEntry is one submitted test with its catalog description.
type SummaryEntry struct {
	NameEn          string
	NameSecondary   string
	MeasurementUnit string
	ReferenceRange  string
	Interpretation  string
	BeforeValue     float64
	AfterValue      float64
}

func init() {
	gob.Register(SubmissionSummary{})
}

// resultRow is one line of the submission form.
type resultRow struct {
	Item   db.TestingItem
	Before string
	After  string
}

func beforeField(id uuid.UUID) string { return "before_" + id.String() }

func afterField(id uuid.UUID) string { return "after_" + id.String() }

func itemNameField(id uuid.UUID) string { return "item_" + id.String() }

// buildResultRows pairs every catalog item with its submitted values. A nil
// form yields empty inputs.
func buildResultRows(items []db.TestingItem, form url.Values) []resultRow {
	rows := make([]resultRow, 0, len(items))
	for _, item := range items {
		row := resultRow{Item: item}
		if form != nil {
			row.Before = strings.TrimSpace(form.Get(beforeField(item.ID)))
			row.After = strings.TrimSpace(form.Get(afterField(item.ID)))
		}
		rows = append(rows, row)
	}
	return rows
}

// rowsFromForm rebuilds the rows of a posted form without the catalog, so
// entered values survive when the catalog cannot be loaded.
func rowsFromForm(form url.Values) []resultRow {
	var rows []resultRow
	for key := range form {
		raw, ok := strings.CutPrefix(key, "before_")
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		rows = append(rows, resultRow{
			Item:   db.TestingItem{ID: id, NameEn: strings.TrimSpace(form.Get(itemNameField(id)))},
			Before: strings.TrimSpace(form.Get(beforeField(id))),
			After:  strings.TrimSpace(form.Get(afterField(id))),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Item.NameEn != rows[j].Item.NameEn {
			return rows[i].Item.NameEn < rows[j].Item.NameEn
		}
		return rows[i].Item.ID.String() < rows[j].Item.ID.String()
	})

	return rows
}

// collectEntries requires a before and after number for every row.
func collectEntries(rows []resultRow) ([]db.TestResultEntry, error) {
	if len(rows) == 0 {
		return nil, errNoTestingItems
	}

	for _, row := range rows {
		if row.Before == "" || row.After == "" {
			return nil, errAllFieldsRequired
		}
	}

	entries := make([]db.TestResultEntry, 0, len(rows))
	for _, row := range rows {
		before, err := parseResultValue(row.Before)
		if err != nil {
			return nil, err
		}
		after, err := parseResultValue(row.After)
		if err != nil {
			return nil, err
		}
		entries = append(entries, db.TestResultEntry{
			TestingItemID: row.Item.ID,
			BeforeValue:   before,
			AfterValue:    after,
		})
	}

	return entries, nil
}

func parseResultValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errInvalidResultValue
	}
	return v, nil
}

func newSubmissionSummary(items []db.TestingItem, entries []db.TestResultEntry, submittedAt time.Time) SubmissionSummary {
	byID := make(map[uuid.UUID]db.TestingItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	summary := SubmissionSummary{
		SubmittedAt: submittedAt,
		Entries:     make([]SummaryEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		item := byID[entry.TestingItemID]
		secondary := ""
		if item.NameSecondary != nil {
			secondary = *item.NameSecondary
		}
		summary.Entries = append(summary.Entries, SummaryEntry{
			NameEn:          item.NameEn,
			NameSecondary:   secondary,
			MeasurementUnit: item.MeasurementUnit,
			ReferenceRange:  item.ReferenceRange,
			Interpretation:  item.Interpretation,
			BeforeValue:     entry.BeforeValue,
			AfterValue:      entry.AfterValue,
		})
	}

	return summary
}

func outstandingTokens(s session.Session) []string {
	tokens, _ := s.Get(submissionTokensKey).([]string)
	return tokens
}

// issueSubmissionToken adds a token for a newly rendered form. Tokens of
// forms open in other tabs stay valid.
func issueSubmissionToken(s session.Session) string {
	token := uuid.NewString()

	tokens := append(outstandingTokens(s), token)
	if len(tokens) > maxOutstandingTokens {
		tokens = tokens[len(tokens)-maxOutstandingTokens:]
	}
	s.Set(submissionTokensKey, append([]string(nil), tokens...))

	return token
}

// consumeSubmissionToken accepts each issued token once.
func consumeSubmissionToken(s session.Session, token string) bool {
	if token == "" {
		return false
	}

	tokens := outstandingTokens(s)
	for i, issued := range tokens {
		if issued != token {
			continue
		}
		remaining := make([]string, 0, len(tokens)-1)
		remaining = append(remaining, tokens[:i]...)
		remaining = append(remaining, tokens[i+1:]...)
		s.Set(submissionTokensKey, remaining)
		return true
	}

	return false
}

func submissionSummaryFrom(s session.Session) (SubmissionSummary, bool) {
	summary, ok := s.Get(submissionSummaryKey).(SubmissionSummary)
	return summary, ok && len(summary.Entries) > 0
}

func renderTestForm(s session.Session, t template.Template, data template.Data, rows []resultRow, status int) {
	data["Title"] = "Submit test results"
	data["Rows"] = rows
	data["SubmissionToken"] = issueSubmissionToken(s)
	t.HTML(status, "test_form")
}

// TestForm renders one row per catalog item, ordered by English name.
func TestForm(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	items, err := listTestingItemsFn(c.Request().Context(), db.OrderByName)
	if err != nil {
		logger.Error("Failed to list testing items", "error", err)
		data["Error"] = err.Error()
	}

	renderTestForm(s, t, data, buildResultRows(items, nil), http.StatusOK)
}

// SubmitTests validates and stores one submission event. The identity is
// re-verified before anything is written.
func SubmitTests(c flamego.Context, s session.Session, provider *auth.Provider, t template.Template, data template.Data) {
	ctx := c.Request().Context()

	if err := c.Request().ParseForm(); err != nil {
		SetErrorFlash(s, "Failed to parse form data")
		c.Redirect(pathUserHome, http.StatusSeeOther)
		return
	}
	form := c.Request().Form

	tokenAccepted := consumeSubmissionToken(s, form.Get("submission_token"))
	if !tokenAccepted {
		if _, ok := submissionSummaryFrom(s); ok {
			logger.Warn("Rejected duplicate submission", "session_id", s.ID())
			SetErrorFlash(s, errDuplicateSubmission.Error())
			c.Redirect(pathUserHome+"/summary", http.StatusSeeOther)
			return
		}
	}

	items, err := listTestingItemsFn(ctx, db.OrderByName)
	if err != nil {
		logger.Error("Failed to list testing items", "error", err)
		data["Error"] = errSubmitFailed.Error()
		renderTestForm(s, t, data, rowsFromForm(form), http.StatusInternalServerError)
		return
	}

	if !tokenAccepted {
		logger.Warn("Submission form expired", "session_id", s.ID())
		data["Error"] = errFormExpired.Error()
		renderTestForm(s, t, data, buildResultRows(items, form), http.StatusConflict)
		return
	}

	rows := buildResultRows(items, form)
	entries, err := collectEntries(rows)
	if err != nil {
		data["Error"] = err.Error()
		renderTestForm(s, t, data, rows, http.StatusUnprocessableEntity)
		return
	}

	identity, err := provider.User(ctx, s)
	if err != nil {
		logger.Warn("Failed to verify identity before submission", "error", err)
		SetErrorFlash(s, errSessionVerifyFailed.Error())
		c.Redirect(pathUserLogin, http.StatusSeeOther)
		return
	}

	submittedAt := nowFn()
	if _, err := submitTestResultsFn(ctx, db.SubmitTestResultsInput{
		UserID:      identity.ID,
		SubmittedAt: submittedAt,
		Entries:     entries,
	}); err != nil {
		logger.Error("Failed to submit test results", "identity_id", identity.ID, "error", err)
		data["Error"] = errSubmitFailed.Error()
		renderTestForm(s, t, data, rows, http.StatusInternalServerError)
		return
	}

	logger.Info("Test results submitted", "identity_id", identity.ID, "results", len(entries))
	s.Set(submissionSummaryKey, newSubmissionSummary(items, entries, submittedAt))
	c.Redirect(pathUserHome+"/summary", http.StatusSeeOther)
}

// TestSummary shows the last submission of this session.
func TestSummary(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	summary, ok := submissionSummaryFrom(s)
	if !ok {
		SetErrorFlash(s, errSummaryMissing.Error())
		c.Redirect(pathUserHome, http.StatusSeeOther)
		return
	}

	data["Title"] = "Submission summary"
	data["Summary"] = summary
	t.HTML(http.StatusOK, "test_summary")
}

// DownloadTranscript serves the last submission as a plain-text file.
func DownloadTranscript(c flamego.Context, s session.Session) {
	summary, ok := submissionSummaryFrom(s)
	if !ok {
		SetErrorFlash(s, errSummaryMissing.Error())
		c.Redirect(pathUserHome, http.StatusSeeOther)
		return
	}

	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+transcriptFilename(summary)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(FormatTranscript(summary))); err != nil {
		logger.Warn("Failed to write transcript", "error", err)
	}
}
