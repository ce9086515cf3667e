package paycalc

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type BreakdownEntryResponse struct {
	Code           string          `json:"code"`
	EmployeeRate   decimal.Decimal `json:"employee_rate"`
	EmployerRate   decimal.Decimal `json:"employer_rate"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
	GrossSalary    decimal.Decimal `json:"gross_salary_at_computation"`
	Nationality    string          `json:"nationality_at_computation"`
}

type DetailResponse struct {
	WorkerID           string                   `json:"worker_id"`
	GrossSalary        decimal.Decimal          `json:"gross_salary"`
	EmployeeDeductions decimal.Decimal          `json:"employee_deductions"`
	EmployerDeductions decimal.Decimal          `json:"employer_deductions"`
	NetSalary          decimal.Decimal          `json:"net_salary"`
	Breakdown          []BreakdownEntryResponse `json:"deduction_breakdown"`
}

type MonthSummaryResponse struct {
	MonthYear          string          `json:"month_year"`
	OverallGrossSalary decimal.Decimal `json:"overall_gross_salary"`
	OverallDeduction   decimal.Decimal `json:"overall_deduction"`
	OverallNet         decimal.Decimal `json:"overall_net"`
}

type MonthResponse struct {
	MonthYear          string           `json:"month_year"`
	OverallGrossSalary decimal.Decimal  `json:"overall_gross_salary"`
	OverallDeduction   decimal.Decimal  `json:"overall_deduction"`
	OverallNet         decimal.Decimal  `json:"overall_net"`
	Details            []DetailResponse `json:"details"`
}

type RecalculateRequest struct {
	MonthYear string `json:"month_year" binding:"omitempty,len=7"`
}

type ResultResponse struct {
	Processed bool   `json:"processed"`
	Message   string `json:"message"`
}

// breakdownRank orders codes for display: the primary statutory deduction
// first, then the secondary, then everything else alphabetically.
func breakdownRank(code string) int {
	switch {
	case code == "EPF":
		return 0
	case strings.HasPrefix(code, "SOCSO"):
		return 1
	default:
		return 2
	}
}

func mapBreakdownToResponse(breakdown map[string]DeductionSnapshot) []BreakdownEntryResponse {
	entries := make([]BreakdownEntryResponse, 0, len(breakdown))
	for code, snap := range breakdown {
		entries = append(entries, BreakdownEntryResponse{
			Code:           code,
			EmployeeRate:   snap.EmployeeRate,
			EmployerRate:   snap.EmployerRate,
			EmployeeAmount: snap.EmployeeAmount,
			EmployerAmount: snap.EmployerAmount,
			GrossSalary:    snap.GrossSalaryAtComputation,
			Nationality:    snap.NationalityAtComputation,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		ri, rj := breakdownRank(entries[i].Code), breakdownRank(entries[j].Code)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}

func mapDetailToResponse(detail PayCalculationDetail) (DetailResponse, error) {
	breakdown, err := detail.Breakdown()
	if err != nil {
		return DetailResponse{}, err
	}

	return DetailResponse{
		WorkerID:           detail.WorkerID.String(),
		GrossSalary:        detail.GrossSalary,
		EmployeeDeductions: detail.EmployeeDeductions,
		EmployerDeductions: detail.EmployerDeductions,
		NetSalary:          detail.NetSalary,
		Breakdown:          mapBreakdownToResponse(breakdown),
	}, nil
}

func mapMonthSummaries(calcs []PayCalculation) []MonthSummaryResponse {
	summaries := make([]MonthSummaryResponse, 0, len(calcs))
	for _, calc := range calcs {
		summaries = append(summaries, MonthSummaryResponse{
			MonthYear:          calc.MonthYear,
			OverallGrossSalary: calc.OverallGrossSalary,
			OverallDeduction:   calc.OverallDeduction,
			OverallNet:         calc.OverallNet,
		})
	}
	return summaries
}

func mapMonthToResponse(calc *PayCalculation, details []PayCalculationDetail) (MonthResponse, error) {
	resp := MonthResponse{
		MonthYear:          calc.MonthYear,
		OverallGrossSalary: calc.OverallGrossSalary,
		OverallDeduction:   calc.OverallDeduction,
		OverallNet:         calc.OverallNet,
		Details:            make([]DetailResponse, 0, len(details)),
	}
	for _, d := range details {
		dr, err := mapDetailToResponse(d)
		if err != nil {
			return MonthResponse{}, err
		}
		resp.Details = append(resp.Details, dr)
	}
	return resp, nil
}
