package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of
// them so callers can branch with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrParse      = errors.New("parse error")
	ErrDivision   = errors.New("division error")
	ErrConstraint = errors.New("constraint error")
)

var (
	ErrEmptyService       = fmt.Errorf("%w: empty service name", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptyCategory      = fmt.Errorf("%w: empty category name", ErrValidation)
	ErrCategoryTooLong    = fmt.Errorf("%w: category name too long (max %d characters)", ErrValidation, MaxNameLength)
	ErrDescriptionTooLong = fmt.Errorf("%w: text too long (max %d characters)", ErrValidation, MaxNameLength)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidFrequency   = fmt.Errorf("%w: invalid frequency", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidMonth       = fmt.Errorf("%w: invalid month", ErrValidation)

	ErrMalformedDate = fmt.Errorf("%w: malformed date", ErrParse)

	ErrZeroSalary = fmt.Errorf("%w: salary amount is zero", ErrDivision)

	ErrLastCategory      = fmt.Errorf("%w: at least one category must exist", ErrConstraint)
	ErrDuplicateCategory = fmt.Errorf("%w: category already exists", ErrConstraint)
	ErrNotFound          = fmt.Errorf("%w: record not found", ErrConstraint)
)

// MaxNameLength bounds free-text names and descriptions.
const MaxNameLength = 200
