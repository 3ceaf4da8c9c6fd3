package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Fixture errors
var (
	ErrFixtureSetNotFound  = errors.New("fixture set not found")
	ErrCaseIndexOutOfRange = errors.New("test case index out of range")
)

// Generator errors
var (
	ErrEmptyRequirements = errors.New("requirements are empty")
	ErrEmptyGeneration   = errors.New("generator returned no content")
)

// General errors
var ErrInvalidInput = errors.New("invalid input")
