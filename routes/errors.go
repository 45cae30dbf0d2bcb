/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

//nolint:staticcheck // user-facing messages
var (
	errAllFieldsRequired    = errors.New("All fields are required")
	errInvalidResultValue   = errors.New("Result values must be numbers")
	errSubmitFailed         = errors.New("Failed to submit test results")
	errDuplicateSubmission  = errors.New("This submission was already received")
	errFormExpired          = errors.New("This form has expired, please check your values and submit again")
	errInvalidThreshold     = errors.New("Risk thresholds must be numbers")
	errPasswordsDoNotMatch  = errors.New("Passwords do not match")
	errDisplayNameRequired  = errors.New("Name is required")
	errSessionVerifyFailed  = errors.New("Could not verify your session, please sign in again")
	errSummaryMissing       = errors.New("No submission to show")
	errChartResultsRequired = errors.New("chart needs at least one result")
)
