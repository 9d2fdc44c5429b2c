package models

import "errors"

var ErrInvalidEvent = errors.New("invalid triage event")

type ErrorResponse struct {
	Error string `json:"error"`
}
