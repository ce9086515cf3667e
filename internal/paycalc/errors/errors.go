package paycalcerrors

import (
	"net/http"

	"go-plantation/internal/shared/apperror"
)

var (
	ErrInvalidMonthFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid month format, expected YYYY-MM",
		http.StatusBadRequest,
	)
	ErrInvalidWorkerID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid worker id",
		http.StatusBadRequest,
	)
	ErrInvalidWorkOrderID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid work order id",
		http.StatusBadRequest,
	)
	ErrPayCalculationNotFound = apperror.New(
		apperror.CodeNotFound,
		"pay calculation not found",
		http.StatusNotFound,
	)
	ErrDetailNotFound = apperror.New(
		apperror.CodeNotFound,
		"pay calculation detail not found",
		http.StatusNotFound,
	)
)
