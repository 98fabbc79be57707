package service

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrValidation = errors.New("invalid submission event")
)
