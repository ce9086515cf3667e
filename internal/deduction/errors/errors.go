package deductionerrors

import (
	"net/http"

	"go-plantation/internal/shared/apperror"
)

var (
	ErrUnknownCalculationMethod = apperror.New(
		apperror.CodeInvalidState,
		"unknown deduction calculation method",
		http.StatusInternalServerError,
	)
	ErrUnknownWageRangeMethod = apperror.New(
		apperror.CodeInvalidState,
		"unknown wage range calculation method",
		http.StatusInternalServerError,
	)
)
