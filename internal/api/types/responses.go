package types

import (
	"github.com/meetup-planner/app/internal/api/flash"
	"github.com/meetup-planner/app/internal/models"
)

// APIResponse is the JSON envelope of the health endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Page is the data handed to every HTML template.
type Page struct {
	Title       string
	User        *models.User
	Flash       *flash.Message
	CurrentYear int
	RequestID   string
	Data        any
}

// ErrorData fills error.html.
type ErrorData struct {
	StatusCode int
	StatusText string
	Message    string
}
