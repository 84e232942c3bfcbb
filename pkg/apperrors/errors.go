package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrNoCredential  = errors.New("model API key missing")
	ErrNotSelect     = errors.New("only SELECT statements can be executed")
	ErrNoResult      = errors.New("collaborator returned no result")
)
