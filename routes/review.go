/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	htmltemplate "html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/template"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/humaidq/labtrack/db"
)

var listTestResultsWithUsersFn = db.ListTestResultsWithUsers

const pathAdminResults = "/admin/results"

// ResultGroup holds every result of one submitter.
type ResultGroup struct {
	Email       string
	DisplayName string
	Results     []db.TestResultWithUser
}

// GroupResultsByEmail buckets results by submitter email, keeping the input
// order within each bucket.
func GroupResultsByEmail(results []db.TestResultWithUser) map[string]*ResultGroup {
	groups := make(map[string]*ResultGroup)
	for _, result := range results {
		group, ok := groups[result.Email]
		if !ok {
			group = &ResultGroup{Email: result.Email}
			groups[result.Email] = group
		}
		if group.DisplayName == "" && result.DisplayName != nil {
			group.DisplayName = *result.DisplayName
		}
		group.Results = append(group.Results, result)
	}
	return groups
}

// FilterGroups keeps groups whose email contains query, ignoring case, and
// sorts them by email. An empty query keeps every group.
func FilterGroups(groups map[string]*ResultGroup, query string) []*ResultGroup {
	needle := strings.ToLower(strings.TrimSpace(query))

	filtered := make([]*ResultGroup, 0, len(groups))
	for email, group := range groups {
		if needle == "" || strings.Contains(strings.ToLower(email), needle) {
			filtered = append(filtered, group)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Email < filtered[j].Email
	})

	return filtered
}

// selectionLink returns the link for a group entry. Following the link of the
// selected group clears the selection.
func selectionLink(query, selected, email string) string {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	if email != selected {
		values.Set("email", email)
	}

	if len(values) == 0 {
		return pathAdminResults
	}
	return pathAdminResults + "?" + values.Encode()
}

type groupEntry struct {
	*ResultGroup
	Link     string
	Selected bool
}

// latestPerTest keeps the newest result of each testing item, in first-seen
// order. Results must be sorted newest first.
func latestPerTest(results []db.TestResultWithUser) []db.TestResultWithUser {
	seen := make(map[uuid.UUID]bool)
	latest := make([]db.TestResultWithUser, 0, len(results))
	for _, result := range results {
		if seen[result.TestingItemID] {
			continue
		}
		seen[result.TestingItemID] = true
		latest = append(latest, result)
	}
	return latest
}

// generateComparisonChart renders a before/after bar chart of the latest
// result per test.
func generateComparisonChart(group *ResultGroup) (string, error) {
	latest := latestPerTest(group.Results)
	if len(latest) == 0 {
		return "", errChartResultsRequired
	}

	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].NameEn < latest[j].NameEn
	})

	xAxis := make([]string, 0, len(latest))
	before := make([]opts.BarData, 0, len(latest))
	after := make([]opts.BarData, 0, len(latest))
	for _, result := range latest {
		xAxis = append(xAxis, result.NameEn)
		before = append(before, opts.BarData{Value: result.BeforeValue})
		after = append(after, opts.BarData{Value: result.AfterValue})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Latest results",
			Subtitle: group.Email,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	bar.SetXAxis(xAxis).
		AddSeries("Before", before).
		AddSeries("After", after)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// ReviewResults lists submitters with their results. The q parameter filters
// by email and the email parameter selects one submitter.
func ReviewResults(c flamego.Context, t template.Template, data template.Data) {
	query := strings.TrimSpace(c.Query("q"))
	selected := strings.TrimSpace(c.Query("email"))

	data["Title"] = "Test results"
	data["Query"] = query

	results, err := listTestResultsWithUsersFn(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list test results", "error", err)
		data["Error"] = err.Error()
		t.HTML(http.StatusInternalServerError, "admin_results")
		return
	}

	groups := GroupResultsByEmail(results)
	filtered := FilterGroups(groups, query)

	entries := make([]groupEntry, 0, len(filtered))
	for _, group := range filtered {
		entries = append(entries, groupEntry{
			ResultGroup: group,
			Link:        selectionLink(query, selected, group.Email),
			Selected:    group.Email == selected,
		})
	}
	data["Groups"] = entries
	data["ResultCount"] = len(results)

	if group, ok := groups[selected]; ok && selected != "" {
		data["Selected"] = group
		chart, err := generateComparisonChart(group)
		if err != nil {
			logger.Warn("Failed to render results chart", "email", group.Email, "error", err)
		} else {
			data["Chart"] = htmltemplate.HTML(chart) //nolint:gosec // generated by go-echarts
		}
	}

	t.HTML(http.StatusOK, "admin_results")
}
