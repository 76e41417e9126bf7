// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package api provides the HTTP surface of the recommendation service:
// health, title search, recommendations and cached poster delivery, with
// a consistent response envelope across endpoints.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reelpick/reelpick/internal/logging"
)

// APIResponse is the envelope for all JSON endpoints.
type APIResponse struct {
	// Success indicates whether the request was handled.
	Success bool `json:"success"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes for API responses.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := &APIResponse{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}

// respondError writes an error envelope. The underlying error is logged,
// not leaked to the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Err(err).Str("code", code).Msg(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := &APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logging.Error().Err(encErr).Msg("Failed to encode API error response")
	}
}
